// Package actorbus implements an in-process actor-style messaging substrate:
// bounded typed channels with fiber-aware blocking (package channel), a
// cooperative fiber scheduler (package fiber), a thread spawner (package
// spawn), a process-wide named registry (package registry), and the
// MessagePipeline request/response correlation engine defined in this
// package.
package actorbus

import (
	"fmt"
	"time"

	"github.com/loopcore/actorbus/channel"
)

// Tag discriminates the variant carried by an Envelope. Envelope is a
// tagged union in the style of the Chirp wire packet this package's
// scheduling core is descended from (Type + payload), except the payload
// never leaves process memory, so it is carried as a Go value rather than
// encoded bytes.
type Tag byte

const (
	TagCommand Tag = iota
	TagResponse
	TagFilterSpec
	TagTimeDirective
	TagShutdown
	TagCreatePipe
	TagDestroyPipe
)

func (t Tag) String() string {
	switch t {
	case TagCommand:
		return "COMMAND"
	case TagResponse:
		return "RESPONSE"
	case TagFilterSpec:
		return "FILTER_SPEC"
	case TagTimeDirective:
		return "TIME_DIRECTIVE"
	case TagShutdown:
		return "SHUTDOWN"
	case TagCreatePipe:
		return "CREATE_PIPE"
	case TagDestroyPipe:
		return "DESTROY_PIPE"
	default:
		return fmt.Sprintf("TAG(%d)", byte(t))
	}
}

// Status describes the outcome of a Command carried by a Response.
type Status byte

const (
	StatusSuccess Status = iota
	StatusFailed
	StatusTimeout
)

func (s Status) String() string {
	switch s {
	case StatusSuccess:
		return "SUCCESS"
	case StatusFailed:
		return "FAILED"
	case StatusTimeout:
		return "TIMEOUT"
	default:
		return fmt.Sprintf("STATUS(%d)", byte(s))
	}
}

// Command asks the receiver to invoke method with args, replying on Sender
// with the same ID.
type Command struct {
	Sender *channel.Channel
	ID     uint64
	Method string
	Args   string
}

func (c Command) String() string {
	return fmt.Sprintf("Command(ID=%d, Method=%q, Args=%q)", c.ID, c.Method, c.Args)
}

// Response reports the outcome of the Command with the same ID.
type Response struct {
	Status Status
	ID     uint64
	Data   string
}

func (r Response) String() string {
	return fmt.Sprintf("Response(ID=%d, Status=%v, Data=%q)", r.ID, r.Status, r.Data)
}

// TimeDirective asks a handler to suspend processing for Duration. Drop
// controls what happens to commands that arrive during the sleep: when
// false they are expected to be queued for processing once the sleep ends;
// when true they are expected to be discarded.
type TimeDirective struct {
	Duration time.Duration
	Drop     bool
}

func (d TimeDirective) String() string {
	return fmt.Sprintf("TimeDirective(Duration=%v, Drop=%v)", d.Duration, d.Drop)
}

// FilterSpec associates a mangled (wire/internal) method name with a
// human-readable one, for tooling that needs to present method names to a
// person.
type FilterSpec struct {
	MangledName string
	PrettyName  string
}

// CreatePipe asks the receiving handler loop to spawn a dispatch fiber bound
// to Pipeline, per the MessagePipeline open contract (see the dispatch
// package).
type CreatePipe struct {
	Pipeline *MessagePipeline
}

// Envelope is the message value carried on a Channel. Exactly one of its
// payload fields is meaningful, selected by Tag; Shutdown and DestroyPipe
// carry no payload of their own.
type Envelope struct {
	Tag           Tag
	Command       Command
	Response      Response
	TimeDirective TimeDirective
	FilterSpec    FilterSpec
	CreatePipe    CreatePipe
}

// NewCommand builds a Command envelope.
func NewCommand(sender *channel.Channel, id uint64, method, args string) Envelope {
	return Envelope{Tag: TagCommand, Command: Command{Sender: sender, ID: id, Method: method, Args: args}}
}

// NewResponse builds a Response envelope.
func NewResponse(status Status, id uint64, data string) Envelope {
	return Envelope{Tag: TagResponse, Response: Response{Status: status, ID: id, Data: data}}
}

// NewTimeDirective builds a TimeDirective envelope.
func NewTimeDirective(d time.Duration, drop bool) Envelope {
	return Envelope{Tag: TagTimeDirective, TimeDirective: TimeDirective{Duration: d, Drop: drop}}
}

// NewShutdown builds a Shutdown envelope.
func NewShutdown() Envelope { return Envelope{Tag: TagShutdown} }

// NewDestroyPipe builds a DestroyPipe envelope.
func NewDestroyPipe() Envelope { return Envelope{Tag: TagDestroyPipe} }

func (e Envelope) String() string {
	switch e.Tag {
	case TagCommand:
		return e.Command.String()
	case TagResponse:
		return e.Response.String()
	case TagTimeDirective:
		return e.TimeDirective.String()
	case TagFilterSpec:
		return fmt.Sprintf("FilterSpec(%q -> %q)", e.FilterSpec.MangledName, e.FilterSpec.PrettyName)
	case TagCreatePipe:
		return fmt.Sprintf("CreatePipe(%s)", e.CreatePipe.Pipeline.Name())
	default:
		return e.Tag.String()
	}
}
