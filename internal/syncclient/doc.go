// Package syncclient talks to the gantt server HTTP API.
//
// It lists projects and tasks and writes new display_order values. The two
// order writes back the dragdrop Syncer capability, one per scope:
//
//	client, err := syncclient.New("127.0.0.1:8080", 10*time.Second)
//	if err != nil {
//		return err
//	}
//	manager := dragdrop.New(client.Syncers())
//
// Order writes never return a Go error. A 2xx response becomes
// dragdrop.Success holding the updated record. Any other response becomes
// dragdrop.Failure with the server's message (detail, title or error field,
// in that order) and the status code. Transport and decode problems become
// a Failure without a status.
package syncclient
