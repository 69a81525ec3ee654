// Package vapi is a client for Vapi voice sessions.
//
// A Client creates a call over the Vapi REST API, joins it over a websocket
// transport, and reports lifecycle, transcript, speech and error activity as
// named events. Handlers are registered with On or Once and removed with Off
// using the returned Subscription.
//
// Example usage:
//
//	client := vapi.New(os.Getenv("VAPI_WEB_TOKEN"))
//
//	sub := client.On(vapi.EventMessage, func(e vapi.Event) {
//	    if e.Message.IsFinalTranscript() {
//	        fmt.Println(e.Message.Role, e.Message.Transcript)
//	    }
//	})
//	defer client.Off(sub)
//
//	if err := client.Start(assistant, overrides); err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Stop()
//
// A Client built without a token is still usable for registering handlers;
// IsConfigured reports false and Start returns ErrNotConfigured.
package vapi
