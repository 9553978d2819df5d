// Package client is a Go client for the anonymization REST API.
//
// A Client authenticates with Login, submits media with the CreateJobFrom*
// methods, observes jobs with GetJobStatus and fetches results with
// GetResultFile or SaveResultFile. Webhook registrations are managed with the
// *Webhook methods.
//
//	c, err := client.New(client.WithLogger(logger))
//	if err != nil {
//		return err
//	}
//	if _, err := c.Login(ctx, clientID, secretID); err != nil {
//		return err
//	}
//	job, err := c.CreateJobFromPath(ctx, "face.jpg", &client.AnonymizationOptions{
//		ActivationFacesBlur: client.Bool(true),
//	})
//
// Every method is a single request. The client does not retry, poll, cache
// job state, or refresh its session on its own; callers decide when to call
// Refresh using Session().ExpireTime.
//
// A non-2xx response is returned as a *StatusError. Transport errors come back
// exactly as net/http reports them.
//
// Clients built WithoutFilesystem refuse CreateJobFromPath, SaveResultFile and
// the Buffer and Stream result representations with ErrUnsupportedOperation,
// before anything is sent.
package client
