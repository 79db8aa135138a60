package realtime

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/five82/bufeadmin/internal/bufe"
)

// Frame type discriminators.
const (
	TypeOrderUpdate        = "order_update"
	TypeProductUpdate      = "product_update"
	TypeAddProductResponse = "add_product_response"
	TypePong               = "pong"
	TypeError              = "error"
	TypePing               = "ping"
	TypeAddProduct         = "add_product"
)

// Action says how an entity update applies to the local store.
type Action string

const (
	ActionNew        Action = "new"
	ActionAdd        Action = "add"
	ActionUpdate     Action = "update"
	ActionArchive    Action = "archive"
	ActionArchiveAll Action = "archive_all"
)

var (
	// ErrUnknownType is returned by Decode for a frame whose type is not handled.
	ErrUnknownType = errors.New("unknown frame type")
	// ErrNotOpen is returned when sending while the channel is not open.
	ErrNotOpen = errors.New("realtime channel is not open")
)

// Inbound is a frame received from the server. Implementations are the types
// in this file only.
type Inbound interface {
	Type() string
	inbound()
}

// OrderUpdate carries a pushed order change.
type OrderUpdate struct {
	Action Action     `json:"action"`
	Order  bufe.Order `json:"order"`
}

// ProductUpdate carries a pushed product change.
type ProductUpdate struct {
	Action  Action       `json:"action"`
	Product bufe.Product `json:"product"`
}

// AddProductResponse answers an AddProduct frame sent by this client.
type AddProductResponse struct {
	Success bool          `json:"success"`
	Product *bufe.Product `json:"product,omitempty"`
	Error   string        `json:"error,omitempty"`
}

// Pong acknowledges a Ping.
type Pong struct{}

// ServerError reports a server side failure handling one of our frames.
type ServerError struct {
	Message string `json:"message"`
}

func (OrderUpdate) Type() string        { return TypeOrderUpdate }
func (ProductUpdate) Type() string      { return TypeProductUpdate }
func (AddProductResponse) Type() string { return TypeAddProductResponse }
func (Pong) Type() string               { return TypePong }
func (ServerError) Type() string        { return TypeError }

func (OrderUpdate) inbound()        {}
func (ProductUpdate) inbound()      {}
func (AddProductResponse) inbound() {}
func (Pong) inbound()               {}
func (ServerError) inbound()        {}

// Outbound is a frame sent to the server.
type Outbound interface {
	Type() string
	outbound()
}

// Ping is the heartbeat frame.
type Ping struct{}

// AddProduct asks the server to create a product. The product fields are
// flattened into the frame next to the type.
type AddProduct struct {
	bufe.NewProduct
}

func (Ping) Type() string       { return TypePing }
func (AddProduct) Type() string { return TypeAddProduct }

func (Ping) outbound()       {}
func (AddProduct) outbound() {}

type envelope struct {
	Type string `json:"type"`
}

// Decode parses one inbound frame.
func Decode(data []byte) (Inbound, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("decode frame: %w", err)
	}

	var (
		msg Inbound
		err error
	)
	switch env.Type {
	case TypeOrderUpdate:
		var m OrderUpdate
		err = json.Unmarshal(data, &m)
		msg = m
	case TypeProductUpdate:
		var m ProductUpdate
		err = json.Unmarshal(data, &m)
		msg = m
	case TypeAddProductResponse:
		var m AddProductResponse
		err = json.Unmarshal(data, &m)
		msg = m
	case TypePong:
		msg = Pong{}
	case TypeError:
		var m ServerError
		err = json.Unmarshal(data, &m)
		msg = m
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownType, env.Type)
	}
	if err != nil {
		return nil, fmt.Errorf("decode %s frame: %w", env.Type, err)
	}
	return msg, nil
}

// Encode serializes an outbound frame with its type discriminator.
func Encode(msg Outbound) ([]byte, error) {
	switch m := msg.(type) {
	case Ping:
		return json.Marshal(envelope{Type: TypePing})
	case AddProduct:
		return json.Marshal(struct {
			Type string `json:"type"`
			bufe.NewProduct
		}{Type: TypeAddProduct, NewProduct: m.NewProduct})
	default:
		return nil, fmt.Errorf("encode frame: unsupported %T", msg)
	}
}
