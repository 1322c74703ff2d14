package svg

import (
	"bytes"
	"fmt"
	"strconv"

	"github.com/matzehuels/orgchart/pkg/chart"
)

const viewerCSS = `
    .node .box { transition: stroke-width 0.2s ease; }
    .node:hover .box { stroke-width: 2; }
    .expandBtn { cursor: pointer; }`

// viewerJS pans and zooms #all within the zoom extent. Double click does
// not zoom. With an endpoint, controls and nodes post back and the page
// reloads the returned SVG.
const viewerJS = `
    (function () {
      const svg = document.currentScript ? document.currentScript.closest('svg') : document.querySelector('svg');
      const all = svg.querySelector('#all');
      const minK = %s, maxK = %s, endpoint = %s;
      let k = 1, x = 0, y = 0, drag = null;
      function apply() { all.setAttribute('transform', 'translate(' + x + ',' + y + ') scale(' + k + ')'); }
      svg.addEventListener('wheel', e => {
        e.preventDefault();
        k = Math.min(maxK, Math.max(minK, k * (e.deltaY < 0 ? 1.1 : 1 / 1.1)));
        apply();
      }, { passive: false });
      svg.addEventListener('mousedown', e => { drag = { x: e.clientX - x, y: e.clientY - y }; });
      svg.addEventListener('mousemove', e => { if (drag) { x = e.clientX - drag.x; y = e.clientY - drag.y; apply(); } });
      svg.addEventListener('mouseup', () => { drag = null; });
      svg.addEventListener('dblclick', e => e.stopPropagation());
      if (!endpoint) return;
      function post(action, node) {
        const q = new URLSearchParams({ role: node.dataset.role, id: node.dataset.id });
        fetch(endpoint + '/' + action + '?' + q, { method: 'POST' }).then(r => {
          if (r.ok && action === 'toggle') window.location.reload();
        });
      }
      svg.querySelectorAll('.node').forEach(node => {
        const btn = node.querySelector('.expandBtn');
        if (btn) btn.addEventListener('click', e => { e.stopPropagation(); post('toggle', node); });
        node.querySelector('.box').addEventListener('click', () => post('click', node));
      });
    })();`

func renderViewer(buf *bytes.Buffer, endpoint string) {
	fmt.Fprintf(buf, "  <style>%s\n  </style>\n", viewerCSS)
	js := fmt.Sprintf(viewerJS, num(chart.ZoomExtent[0]), num(chart.ZoomExtent[1]), strconv.Quote(endpoint))
	fmt.Fprintf(buf, "  <script type=\"text/javascript\"><![CDATA[%s\n  ]]></script>\n", js)
}
