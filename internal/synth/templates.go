package synth

// Default wrapper templates. Each is a parameterized source skeleton filled
// per document; embedding applications may override any of them through
// configuration.

// DefaultClientTemplate is the hydration client entry: it imports the target
// page component, reads the props the document shell embedded as JSON, and
// hydrates the server-rendered markup.
const DefaultClientTemplate = `import { hydrateRoot } from 'react-dom/client';
import Page from '{entry}';

const element = document.getElementById('root');
const script = document.getElementById('props');
const props = JSON.parse(script?.textContent || '{}');
hydrateRoot(element, <Page {...props} />);
`

// DefaultPageTemplate is the page re-export module: it re-exports the target
// component and its optional head export, and carries the stylesheet names
// discovered by the asset build.
const DefaultPageTemplate = `export { default, Head } from '{entry}';
export const styles = {styles};
`

// DefaultDocumentTemplate is the document HTML shell filled at render time.
const DefaultDocumentTemplate = `<!DOCTYPE html>
<html>
  <head>
    {head}
    {styles}
  </head>
  <body>
    <div id="root">{body}</div>
    <script id="props" type="text/json">{props}</script>
    <script type="module" src="{client}"></script>
  </body>
</html>
`
