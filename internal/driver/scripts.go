package driver

import (
	"encoding/json"
	"fmt"
)

// AllHiddenScript returns a JavaScript expression that evaluates to true when
// every element matching any of selectors is absent or not rendered.
func AllHiddenScript(selectors []string) string {
	args, _ := json.Marshal(selectors)
	return fmt.Sprintf(`(function(sels) {
	if (!sels.length) return true;
	const els = document.querySelectorAll(sels.join(','));
	return Array.from(els).every(function(el) {
		const cs = window.getComputedStyle(el);
		return cs.display === 'none' || cs.visibility === 'hidden' || !el.offsetParent;
	});
})(%s)`, args)
}

// DOMReadyScript evaluates to true once the document has left the loading state.
const DOMReadyScript = `document.readyState !== 'loading'`
