package workflow

import (
	"errors"
	"strings"
)

// TokenLength is the wire length of a context token (canonical UUID form).
// The router rejects token-bearing payloads of any other length before a
// store lookup is attempted.
const TokenLength = 36

// ErrMalformedCallback marks a callback payload that does not parse into an
// action tag and a data segment, or whose token has the wrong length.
var ErrMalformedCallback = errors.New("malformed callback payload")

// Kind identifies a recognized callback action.
type Kind int

const (
	// KindUnknown is a well-formed payload whose action tag is not in the
	// vocabulary. The router answers it explicitly instead of dropping it.
	KindUnknown Kind = iota
	KindRewrite
	KindPublish
	KindCustomPrompt
	KindCancelPrompt
	KindSelectModel
	KindCancelModelSelect
	KindStartScrape
	KindSupport
)

func (k Kind) String() string {
	switch k {
	case KindRewrite:
		return "rewrite"
	case KindPublish:
		return "publish"
	case KindCustomPrompt:
		return "prompt"
	case KindCancelPrompt:
		return "cancelprompt"
	case KindSelectModel:
		return "model"
	case KindCancelModelSelect:
		return "cancelmodel"
	case KindStartScrape:
		return "scrape"
	case KindSupport:
		return "support"
	default:
		return "unknown"
	}
}

// Callback is the decoded form of an inbound button-click payload. Token is
// set for context-bearing kinds, Literal for fixed-argument kinds.
type Callback struct {
	Kind    Kind
	Token   string
	Literal string
}

// ParseCallback decodes a payload of the form "<action>:<data>", splitting on
// the first delimiter only. Both segments must be non-empty.
func ParseCallback(data string) (Callback, error) {
	idx := strings.Index(data, ":")
	if idx <= 0 || idx == len(data)-1 {
		return Callback{}, ErrMalformedCallback
	}

	action, arg := data[:idx], data[idx+1:]

	var kind Kind
	switch action {
	case "rewrite":
		kind = KindRewrite
	case "publish":
		kind = KindPublish
	case "prompt":
		kind = KindCustomPrompt
	case "cancelprompt":
		kind = KindCancelPrompt
	case "model":
		return Callback{Kind: KindSelectModel, Literal: arg}, nil
	case "cancelmodel":
		return Callback{Kind: KindCancelModelSelect}, nil
	case "scrape":
		return Callback{Kind: KindStartScrape}, nil
	case "support":
		return Callback{Kind: KindSupport}, nil
	default:
		return Callback{Kind: KindUnknown}, nil
	}

	if len(arg) != TokenLength {
		return Callback{}, ErrMalformedCallback
	}
	return Callback{Kind: kind, Token: arg}, nil
}
