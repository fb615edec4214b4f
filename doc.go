// Package hubclient implements a client for the SignalR JSON hub protocol
// (version 1) over WebSockets. A Client connects to a hub, invokes remote
// methods (single-result or server-streaming), sends fire-and-forget
// messages, and registers local callbacks the hub may invoke in turn.
//
// # Usage
//
//	client, err := hubclient.ConnectWith(ctx, "api.example.com", "deviceRHub", func(c *hubclient.ConnectionConfig) {
//		c.WithPort(443).AuthenticateBearer(token)
//	})
//	if err != nil {
//		return err
//	}
//	defer client.Disconnect()
//
//	entity, err := hubclient.InvokeWithArgs[Entity](ctx, client, "PushEntity", func(a *hubclient.ArgumentConfiguration) {
//		a.Argument(Entity{Text: "push1", Number: 100})
//	})
//
//	stream, err := hubclient.Enumerate[Entity](ctx, client, "HundredEntities")
//	if err == nil {
//		defer stream.Close()
//		for {
//			item, err := stream.Next(ctx)
//			if err == io.EOF {
//				break
//			}
//			...
//		}
//	}
//
//	unregister, err := client.Register("cb", func(ctx *hubclient.InvocationContext) {
//		arg, err := hubclient.Argument[string](ctx, 0)
//		if err == nil {
//			_ = ctx.Complete(arg)
//		}
//	})
//	defer unregister.Unregister()
//
// # Concurrency
//
// A Client is safe for concurrent use. Clone returns a handle sharing the
// same registry and transport; Disconnect on the last live clone tears the
// connection down, cancelling every outstanding invocation with
// ErrCancelled and ending every outstanding stream (Next returns io.EOF).
package hubclient
