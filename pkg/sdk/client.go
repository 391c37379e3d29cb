package sdk

import (
	"context"
	"fmt"
	"net/http"
	"strings"
)

// Resource is the CRUD surface of one API collection.
type Resource[T any] struct {
	transport *Transport
	path      string
}

// NewResource binds a collection path (e.g. "api/products/") to a transport.
func NewResource[T any](transport *Transport, path string) Resource[T] {
	if !strings.HasSuffix(path, "/") {
		path += "/"
	}
	return Resource[T]{transport: transport, path: path}
}

// Path returns the collection path.
func (r Resource[T]) Path() string {
	return r.path
}

func (r Resource[T]) itemPath(id int64) string {
	return fmt.Sprintf("%s%d/", r.path, id)
}

func (r Resource[T]) List(ctx context.Context) ([]T, error) {
	var items []T
	if err := r.transport.Do(ctx, http.MethodGet, r.path, nil, nil, &items); err != nil {
		return nil, err
	}
	return items, nil
}

func (r Resource[T]) Get(ctx context.Context, id int64) (*T, error) {
	var item T
	if err := r.transport.Do(ctx, http.MethodGet, r.itemPath(id), nil, nil, &item); err != nil {
		return nil, err
	}
	return &item, nil
}

// Create posts a (possibly partial) payload and returns the stored entity.
func (r Resource[T]) Create(ctx context.Context, payload any) (*T, error) {
	var item T
	if err := r.transport.Do(ctx, http.MethodPost, r.path, nil, payload, &item); err != nil {
		return nil, err
	}
	return &item, nil
}

// Update replaces the entity with id using PUT.
func (r Resource[T]) Update(ctx context.Context, id int64, payload any) (*T, error) {
	var item T
	if err := r.transport.Do(ctx, http.MethodPut, r.itemPath(id), nil, payload, &item); err != nil {
		return nil, err
	}
	return &item, nil
}

func (r Resource[T]) Delete(ctx context.Context, id int64) error {
	return r.transport.Do(ctx, http.MethodDelete, r.itemPath(id), nil, nil, nil)
}

// Client provides typed access to the catalog, trading and report endpoints.
type Client struct {
	transport *Transport

	Manufacturers   Resource[Manufacturer]
	Products        Resource[Product]
	BrokerCompanies Resource[BrokerCompany]
	Brokers         Resource[Broker]
	Batches         Resource[Batch]
	BatchItems      Resource[BatchItem]
}

// NewClient creates a Client that sends every request through transport.
func NewClient(transport *Transport) *Client {
	return &Client{
		transport:       transport,
		Manufacturers:   NewResource[Manufacturer](transport, "api/manufacturers/"),
		Products:        NewResource[Product](transport, "api/products/"),
		BrokerCompanies: NewResource[BrokerCompany](transport, "api/broker-companies/"),
		Brokers:         NewResource[Broker](transport, "api/brokers/"),
		Batches:         NewResource[Batch](transport, "api/batches/"),
		BatchItems:      NewResource[BatchItem](transport, "api/batch-items/"),
	}
}
