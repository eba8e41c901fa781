// Package events announces catalog changes to in-process listeners.
package events

import (
	"time"

	"storefront/pkg/models"
)

type Kind string

const (
	KindReady       Kind = "catalog.ready"
	KindItemCreated Kind = "catalog.item_created"
	KindItemUpdated Kind = "catalog.item_updated"
	KindItemDeleted Kind = "catalog.item_deleted"
)

// Event is one of Ready, ItemCreated, ItemUpdated or ItemDeleted.
type Event interface {
	Kind() Kind
	isEvent()
}

// Ready fires once, after the mirror finished its first load.
type Ready struct{}

type ItemCreated struct {
	Item models.Item
}

// ItemUpdated carries the partial field set that was applied.
type ItemUpdated struct {
	ID   string
	Data models.ItemPatch
}

type ItemDeleted struct {
	ID string
}

func (Ready) Kind() Kind       { return KindReady }
func (ItemCreated) Kind() Kind { return KindItemCreated }
func (ItemUpdated) Kind() Kind { return KindItemUpdated }
func (ItemDeleted) Kind() Kind { return KindItemDeleted }

func (Ready) isEvent()       {}
func (ItemCreated) isEvent() {}
func (ItemUpdated) isEvent() {}
func (ItemDeleted) isEvent() {}

// Envelope is the JSON form pushed to remote subscribers.
type Envelope struct {
	Type Kind      `json:"type"`
	ID   string    `json:"id,omitempty"`
	Data any       `json:"data,omitempty"`
	At   time.Time `json:"at"`
}

func NewEnvelope(ev Event, at time.Time) Envelope {
	env := Envelope{Type: ev.Kind(), At: at.UTC()}
	switch e := ev.(type) {
	case ItemCreated:
		env.ID = e.Item.ID
		env.Data = e.Item
	case ItemUpdated:
		env.ID = e.ID
		env.Data = e.Data.Fields()
	case ItemDeleted:
		env.ID = e.ID
	}
	return env
}
