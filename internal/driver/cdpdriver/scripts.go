package cdpdriver

import (
	"encoding/json"
	"fmt"

	"lightcheck/internal/driver"
)

const refAttr = "data-lightcheck-ref"

// preludeJS defines isVisible and find for element scripts. Role names are
// matched against aria-label, title, then rendered text.
const preludeJS = `
function isVisible(el) {
	const cs = window.getComputedStyle(el);
	if (cs.display === 'none' || cs.visibility === 'hidden') return false;
	const r = el.getBoundingClientRect();
	return r.width > 0 && r.height > 0;
}
function accessibleName(el) {
	return (el.getAttribute('aria-label') || el.getAttribute('title') || el.innerText || el.textContent || el.value || '').trim();
}
const roleSelectors = {
	button: 'button,[role="button"],input[type="button"],input[type="submit"]',
	option: '[role="option"],option',
	heading: 'h1,h2,h3,h4,h5,h6,[role="heading"]',
	link: 'a[href],[role="link"]',
	textbox: 'input:not([type]),input[type="text"],input[type="email"],textarea,[role="textbox"]',
	navigation: 'nav,[role="navigation"]'
};
function find(strategy, value, src, flags) {
	if (strategy === 'css') return document.querySelector(value);
	if (strategy === 'role') {
		const re = src ? new RegExp(src, flags) : null;
		const sel = roleSelectors[value] || '[role="' + value + '"]';
		for (const el of document.querySelectorAll(sel)) {
			if (!re || re.test(accessibleName(el))) return el;
		}
		return null;
	}
	for (const el of document.body.querySelectorAll('*')) {
		if (!(el.textContent || '').includes(value)) continue;
		let inner = true;
		for (const child of el.children) {
			if ((child.textContent || '').includes(value)) { inner = false; break; }
		}
		if (inner) return el;
	}
	return null;
}
`

// elementScript wraps body in a function where el is the first element
// matching loc, or null.
func elementScript(loc driver.Locator, body string) string {
	src, flags := driver.JSPattern(loc.Name)
	args, _ := json.Marshal([]string{loc.Strategy.String(), loc.Value, src, flags})
	return fmt.Sprintf("(function(a) {%s\nconst el = find(a[0], a[1], a[2], a[3]);\n%s\n})(%s)", preludeJS, body, args)
}
