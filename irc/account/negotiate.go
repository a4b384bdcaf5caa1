package account

import "github.com/presbrey/suprachat/irc"

type negotiationState int

const (
	negListing negotiationState = iota
	negRequested
	negDone
)

// negotiator drives CAP LS / REQ / ACK for a single capability. With an
// empty want it only collects the advertisement.
type negotiator struct {
	want  string
	caps  irc.CapSet
	state negotiationState
}

func newNegotiator(want string) *negotiator {
	return &negotiator{
		want: want,
		caps: make(irc.CapSet),
	}
}

func (n *negotiator) start() []*irc.Message {
	return []*irc.Message{irc.NewMessage(irc.CAP, irc.CapLS, irc.CapVersion)}
}

// step consumes a CAP line. done is true once negotiation is finished; a
// non-nil res means it finished in failure.
func (n *negotiator) step(msg *irc.Message) (out []*irc.Message, done bool, res *Result) {
	if msg.Command != irc.CAP || n.state == negDone {
		return nil, n.state == negDone, nil
	}

	switch msg.Param(1) {
	case irc.CapLS:
		if n.state != negListing {
			return nil, false, nil
		}

		// CAP <target> LS * :<caps> continues, CAP <target> LS :<caps> ends
		if msg.Param(2) == "*" && len(msg.Params) > 3 {
			n.caps.Add(msg.Param(3))
			return nil, false, nil
		}
		n.caps.Add(msg.Param(2))

		if n.want == "" {
			n.state = negDone
			return nil, true, nil
		}
		if !n.caps.Has(n.want) {
			return nil, false, n.fail("IRC server does not offer " + n.want + ".")
		}
		n.state = negRequested
		return []*irc.Message{irc.NewMessage(irc.CAP, irc.CapREQ, n.want)}, false, nil

	case irc.CapACK:
		if n.state != negRequested {
			return nil, false, nil
		}
		if !irc.ParseCapList(msg.Trailing()).Has(n.want) {
			return nil, false, n.fail("IRC server did not acknowledge " + n.want + ".")
		}
		n.state = negDone
		return nil, true, nil

	case irc.CapNAK:
		if n.state != negRequested {
			return nil, false, nil
		}
		return nil, false, n.fail("IRC server refused " + n.want + ".")
	}

	return nil, false, nil
}

func (n *negotiator) fail(message string) *Result {
	n.state = negDone
	res := failed(CapabilityUnavailable, message)
	return &res
}
