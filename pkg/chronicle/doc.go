// Package chronicle learns which profile an activity block belongs to and
// segments timestamped blocks into work sessions.
//
// Quick start:
//
//	c := chronicle.New()
//	if _, err := c.Train(records, profileIDs); err != nil {
//	    log.Fatal(err)
//	}
//	res, _ := c.Predict([]chronicle.Record{{AppName: "Slack", Title: "general"}}, 0.6)
//	for _, p := range res.Predictions {
//	    fmt.Println(p.Index, p.ProfileID, p.Level)
//	}
//
// A Chronicle is safe for concurrent use. Predictions run against the model
// published when they start; retraining swaps the model atomically.
package chronicle
