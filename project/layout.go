package project

import (
	"os"
	"path/filepath"
	"strings"
)

// DefaultPackageName is the npm name the demo imports the library by.
const DefaultPackageName = "react-nice-avatar"

// Layout describes where things live in an avatar library checkout.
type Layout struct {
	Root        string
	PackageName string
}

// New returns the layout of the repository rooted at root.
func New(root string, packageName string) Layout {
	if packageName == "" {
		packageName = DefaultPackageName
	}
	return Layout{Root: filepath.Clean(root), PackageName: packageName}
}

func (l Layout) SrcRoot() string { return filepath.Join(l.Root, "src") }
func (l Layout) DistRoot() string { return filepath.Join(l.Root, "dist") }
func (l Layout) DemoRoot() string { return filepath.Join(l.Root, "demo") }
func (l Layout) DemoSrc() string { return filepath.Join(l.Root, "demo", "src") }
func (l Layout) DemoDist() string { return filepath.Join(l.Root, "demo", "dist") }
func (l Layout) LibraryEntry() string { return filepath.Join(l.SrcRoot(), "index.tsx") }
func (l Layout) DemoEntry() string { return filepath.Join(l.DemoSrc(), "index.tsx") }
func (l Layout) Template() string { return filepath.Join(l.DemoRoot(), "app.template.html") }
func (l Layout) ThemeFile() string { return filepath.Join(l.DemoSrc(), "theme-v2.css") }
func (l Layout) PackageJSON() string { return filepath.Join(l.Root, "package.json") }
func (l Layout) TypesFile() string { return filepath.Join(l.SrcRoot(), "types.ts") }

// TailwindConfig is the utility framework config shared by every stylesheet.
func (l Layout) TailwindConfig() string {
	return filepath.Join(l.Root, "tailwind.config.js")
}

// IncludePaths is the ordered search path for nested stylesheet imports.
func (l Layout) IncludePaths() []string {
	return []string{
		filepath.Join(l.DemoSrc(), "scss"),
		filepath.Join(l.DemoRoot(), "public"),
		filepath.Join(l.DemoSrc(), "App"),
		l.DemoSrc(),
	}
}

// Stylesheets lists the demo stylesheets injected into the page, in order.
func (l Layout) Stylesheets() []string {
	src := l.DemoSrc()
	return []string{
		filepath.Join(src, "index.scss"),
		filepath.Join(src, "App", "index.scss"),
		filepath.Join(src, "App", "AvatarEditor", "index.scss"),
		filepath.Join(src, "App", "AvatarEditor", "SectionWrapper", "index.scss"),
		filepath.Join(src, "App", "AvatarList", "index.scss"),
	}
}

// Rel returns p relative to the demo sources, for log lines and CSS banners.
func (l Layout) Rel(p string) string {
	return strings.TrimPrefix(p, l.DemoSrc()+string(filepath.Separator))
}

// Within joins the slash separated name onto base and reports whether the
// result stays inside base.
func Within(base string, name string) (string, bool) {
	p := filepath.Join(base, filepath.FromSlash(name))
	rel, err := filepath.Rel(base, p)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", false
	}
	return p, true
}

// FileExists reports whether p exists and is not a directory.
func FileExists(p string) bool {
	fi, err := os.Stat(p)
	return err == nil && !fi.IsDir()
}

// DirExists reports whether p is an existing directory.
func DirExists(p string) bool {
	fi, err := os.Stat(p)
	return err == nil && fi.IsDir()
}
