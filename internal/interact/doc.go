// Package interact is the resilient interaction and synchronization layer
// for Salesforce Lightning pages.
//
// Lightning renders asynchronously, ships different markup for the same
// control across releases, flashes toasts that vanish within seconds and may
// insert optional screens after login. The components here absorb those
// quirks:
//
//   - Resolver tries an ordered list of candidate locators and returns the
//     first visible one.
//   - Waiter polls side-effect-free conditions, most importantly "no loading
//     spinner is rendered".
//   - ToastObserver captures and classifies a toast inside its visibility
//     window.
//   - RecordIDExtractor reads the new record's id from the post-save URL.
//   - InterstitialHandler gets a fresh login past optional prompts.
//
// Kit bundles them for page objects. A Kit drives exactly one page and must
// not be shared between goroutines.
package interact
