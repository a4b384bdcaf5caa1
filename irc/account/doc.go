// Package account registers and verifies IRC accounts on behalf of a web
// frontend, using WEBIRC and the IRCv3 draft/account-registration
// capability.
//
// Each handshake is a Machine: a pure state-transition function fed one
// inbound line at a time. Client supplies the I/O, closes the connection on
// every exit path and returns exactly one Result.
//
//	c := account.NewClient(account.Session{WebIRCPassword: pass, RemoteIP: ip})
//	if !c.Connect(ctx, "", 0) {
//	    return c.Err()
//	}
//	res := c.Register(ctx, "DeadOcean", "dead@ocean.example", "hunter22")
//	if !res.OK() {
//	    return res.Err()
//	}
package account
