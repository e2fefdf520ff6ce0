package server

const (
	// headStyles holds the compiled theme and the demo stylesheets.
	headStyles = `
    <style>%s</style>
    <style>%s</style>
    `

	// bootScript loads the bundle and surfaces script errors in the page.
	bootScript = `
    <script type="module" src="/app.js"></script>
    <script>
      window.addEventListener('error', (e) => {
        console.error('Global error:', e.error, e.filename, e.lineno);
        document.body.innerHTML = '<div style="padding: 20px; color: red;"><h1>JavaScript Error</h1><pre>' + e.error + '</pre></div>';
      });
      window.addEventListener('unhandledrejection', (e) => {
        console.error('Unhandled promise rejection:', e.reason);
      });
      setTimeout(() => {
        if (!document.querySelector('#app')?.hasChildNodes()) {
          console.warn('App did not render - check console for errors');
        }
      }, 1000);
    </script>
    `

	errorPageHTML = `<html><body><h1>Error generating HTML</h1><pre>%s
%s</pre></body></html>`

	// errorScript is served in place of a bundle that failed to build: the
	// message, then the detailed error with its stack when one was captured.
	errorScript = "// Error: %s\nconsole.error(%s);\nconsole.error(%s);\n"
)

const (
	bundlePath = "/app.js"
	notFound   = "Not found"

	contentTypeHTML = "text/html"
	contentTypeJS   = "application/javascript"
	contentTypeTS   = "application/typescript"
	contentTypeCSS  = "text/css"
)
