/*
Package irc implements the client side of the IRC line protocol needed to
talk to an IRC daemon from a web backend.

# Features

  - Message parsing and serialization per RFC 1459 / RFC 2812, including
    IRCv3 message tags and the trailing parameter rule
  - Stream framing over arbitrarily fragmented reads (Decoder)
  - Capability advertisement parsing for CAP LS 302 (CapSet)
  - A deadline-aware TCP/TLS connection wrapper with idempotent Close (Conn)

The account registration and verification handshakes built on top of this
package live in the account sub-package.

# Usage

	conn, err := irc.Dial(ctx, "127.0.0.1:6667", irc.DefaultDialOptions())
	if err != nil {
	    log.Fatalf("Failed to connect: %v", err)
	}
	defer conn.Close()

	conn.Send(irc.NewMessage(irc.CAP, irc.CapLS, irc.CapVersion))
	msgs, err := conn.ReadMessages(ctx)
*/
package irc
