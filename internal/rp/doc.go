// Package rp publishes lightcheck runs to Report Portal 5.x through its
// reporting API.
//
// Usage:
//
//	client, err := rp.New(baseURL, token, rp.WithTimeout(30*time.Second))
//	pub := rp.NewPublisher(client, "crm-qe", "lightcheck nightly")
//	launch, err := pub.Publish(ctx, summary)
//
// A run becomes one launch; each scenario becomes a TEST item under it.
// Failed scenarios carry an error log and a defect type derived from their
// failure kind.
package rp
