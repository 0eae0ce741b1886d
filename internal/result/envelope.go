// Package result defines the envelope every persistence operation answers
// with. Its JSON form is the contract the dashboard depends on:
//
//	Ok:    {"stat":"Ok","Items":[...],"count":n}
//	Ok:    {"stat":"Ok","message":"..."}   (structure creation)
//	Error: {"stat":"Error","error":"..."}
package result

import (
	"encoding/json"
	"errors"

	"github.com/rahulmyzone/MiraNext/internal/record"
)

type Stat string

const (
	StatOk    Stat = "Ok"
	StatError Stat = "Error"
)

// Envelope is the uniform success/failure result.
type Envelope struct {
	Stat    Stat
	Items   []record.Record
	Message string
	Error   string
}

// Rows wraps returned rows; Count is len(Items).
func Rows(items []record.Record) Envelope {
	if items == nil {
		items = []record.Record{}
	}
	return Envelope{Stat: StatOk, Items: items}
}

// Message is an Ok envelope carrying a message instead of rows.
func Message(msg string) Envelope {
	return Envelope{Stat: StatOk, Message: msg}
}

// Failure renders err's message.
func Failure(err error) Envelope {
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	return Envelope{Stat: StatError, Error: msg}
}

func (e Envelope) OK() bool   { return e.Stat == StatOk }
func (e Envelope) Count() int { return len(e.Items) }

// Err returns the failure as an error, or nil for Ok envelopes.
func (e Envelope) Err() error {
	if e.OK() {
		return nil
	}
	return errors.New(e.Error)
}

type rowsWire struct {
	Stat  Stat            `json:"stat"`
	Items []record.Record `json:"Items"`
	Count int             `json:"count"`
}

type messageWire struct {
	Stat    Stat   `json:"stat"`
	Message string `json:"message"`
}

type errorWire struct {
	Stat  Stat   `json:"stat"`
	Error string `json:"error"`
}

func (e Envelope) MarshalJSON() ([]byte, error) {
	switch {
	case !e.OK():
		return json.Marshal(errorWire{Stat: StatError, Error: e.Error})
	case e.Message != "" && e.Items == nil:
		return json.Marshal(messageWire{Stat: e.Stat, Message: e.Message})
	default:
		items := e.Items
		if items == nil {
			items = []record.Record{}
		}
		return json.Marshal(rowsWire{Stat: e.Stat, Items: items, Count: len(items)})
	}
}

func (e *Envelope) UnmarshalJSON(b []byte) error {
	var w struct {
		Stat    Stat            `json:"stat"`
		Items   []record.Record `json:"Items"`
		Message string          `json:"message"`
		Error   string          `json:"error"`
	}
	if err := json.Unmarshal(b, &w); err != nil {
		return err
	}
	*e = Envelope{Stat: w.Stat, Items: w.Items, Message: w.Message, Error: w.Error}
	return nil
}
