// Package stocktest provee dobles en memoria de los puertos de repositorio y
// del TxRunner, con rollback por snapshot, para las pruebas de los adaptadores.
package stocktest

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/taller-api/internal/application/stock"
	"github.com/jhoicas/taller-api/internal/domain/entity"
	"github.com/jhoicas/taller-api/internal/domain/tenant"
)

// DB es el backend en memoria compartido por todos los repos fake. No es
// seguro para uso concurrente por fuera de Runner: las pruebas concurrentes
// deben pasar siempre por Run.
type DB struct {
	mu sync.Mutex
	d  data
}

type data struct {
	levels      map[string]*entity.QuantityLevel
	movements   []*entity.Movement
	serials     map[string]*entity.SerialItem
	assignments []*entity.SerialAssignment
	products    map[string]*entity.Product
	bins        map[string]*entity.Bin
	workOrders  map[string]*entity.WorkOrder
	parts       map[string]*entity.WorkOrderPart
	statusLog   []*entity.WorkOrderStatusLog
	sales       map[string]*entity.Sale
	saleItems   map[string]*entity.SaleItem
	pos         map[string]*entity.PurchaseOrder
	poLines     map[string]*entity.PurchaseOrderLine
	customers   map[string]*entity.Customer
	orgs        map[string]*entity.Organization
}

// NewDB construye un backend vacío.
func NewDB() *DB {
	return &DB{d: data{
		levels:     map[string]*entity.QuantityLevel{},
		serials:    map[string]*entity.SerialItem{},
		products:   map[string]*entity.Product{},
		bins:       map[string]*entity.Bin{},
		workOrders: map[string]*entity.WorkOrder{},
		parts:      map[string]*entity.WorkOrderPart{},
		sales:      map[string]*entity.Sale{},
		saleItems:  map[string]*entity.SaleItem{},
		pos:        map[string]*entity.PurchaseOrder{},
		poLines:    map[string]*entity.PurchaseOrderLine{},
		customers:  map[string]*entity.Customer{},
		orgs:       map[string]*entity.Organization{},
	}}
}

// Repos arma el juego de repos fake sobre este backend.
func (db *DB) Repos() stock.Repos {
	return stock.Repos{
		Levels:         &levelRepo{db},
		Movements:      &movementRepo{db},
		Serials:        &serialRepo{db},
		Products:       &productRepo{db},
		Bins:           &binRepo{db},
		WorkOrders:     &workOrderRepo{db},
		Sales:          &saleRepo{db},
		PurchaseOrders: &purchaseOrderRepo{db},
		Customers:      &customerRepo{db},
	}
}

// Runner devuelve el TxRunner fake: serializa las unidades de trabajo con el
// mutex y revierte el estado completo (snapshot) cuando fn falla, imitando el
// rollback de la transacción real.
func (db *DB) Runner() stock.TxRunner {
	return &runner{db}
}

type runner struct{ db *DB }

func (r *runner) Run(ctx context.Context, fn func(repos stock.Repos) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	snap := r.db.d.clone()
	if err := fn(r.db.Repos()); err != nil {
		r.db.d = snap
		return err
	}
	return nil
}

// Recorder es un Publisher que acumula los eventos publicados.
type Recorder struct {
	mu     sync.Mutex
	Events []stock.Event
}

func (r *Recorder) Publish(e stock.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Events = append(r.Events, e)
}

// Kinds devuelve los kinds publicados en orden.
func (r *Recorder) Kinds() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.Events))
	for i, e := range r.Events {
		out[i] = e.Kind
	}
	return out
}

func (d data) clone() data {
	out := data{
		levels:      make(map[string]*entity.QuantityLevel, len(d.levels)),
		movements:   append([]*entity.Movement(nil), d.movements...),
		serials:     make(map[string]*entity.SerialItem, len(d.serials)),
		assignments: append([]*entity.SerialAssignment(nil), d.assignments...),
		products:    make(map[string]*entity.Product, len(d.products)),
		bins:        make(map[string]*entity.Bin, len(d.bins)),
		workOrders:  make(map[string]*entity.WorkOrder, len(d.workOrders)),
		parts:       make(map[string]*entity.WorkOrderPart, len(d.parts)),
		statusLog:   append([]*entity.WorkOrderStatusLog(nil), d.statusLog...),
		sales:       make(map[string]*entity.Sale, len(d.sales)),
		saleItems:   make(map[string]*entity.SaleItem, len(d.saleItems)),
		pos:         make(map[string]*entity.PurchaseOrder, len(d.pos)),
		poLines:     make(map[string]*entity.PurchaseOrderLine, len(d.poLines)),
		customers:   make(map[string]*entity.Customer, len(d.customers)),
		orgs:        make(map[string]*entity.Organization, len(d.orgs)),
	}
	for k, v := range d.levels {
		c := *v
		out.levels[k] = &c
	}
	for k, v := range d.serials {
		c := *v
		out.serials[k] = &c
	}
	for k, v := range d.products {
		c := *v
		out.products[k] = &c
	}
	for k, v := range d.bins {
		c := *v
		out.bins[k] = &c
	}
	for k, v := range d.workOrders {
		c := *v
		c.Parts = nil
		out.workOrders[k] = &c
	}
	for k, v := range d.parts {
		c := *v
		out.parts[k] = &c
	}
	for k, v := range d.sales {
		c := *v
		c.Items = nil
		out.sales[k] = &c
	}
	for k, v := range d.saleItems {
		c := *v
		out.saleItems[k] = &c
	}
	for k, v := range d.pos {
		c := *v
		c.Lines = nil
		out.pos[k] = &c
	}
	for k, v := range d.poLines {
		c := *v
		out.poLines[k] = &c
	}
	for k, v := range d.customers {
		c := *v
		out.customers[k] = &c
	}
	for k, v := range d.orgs {
		c := *v
		out.orgs[k] = &c
	}
	return out
}

// --- seeds de conveniencia para las pruebas ---

// SeedOrganization registra un tenant con alertas habilitadas.
func (db *DB) SeedOrganization(id, name string) *entity.Organization {
	o := &entity.Organization{ID: id, Name: name, LowStockAlertsEnabled: true, CreatedAt: time.Now(), UpdatedAt: time.Now()}
	db.d.orgs[id] = o
	return o
}

// SeedProduct registra un producto activo del tenant.
func (db *DB) SeedProduct(orgID, id, sku string, trackSerial bool, reorderPoint int64) *entity.Product {
	p := &entity.Product{
		ID: id, OrganizationID: orgID, SKU: sku, Name: sku,
		UnitMeasure: "unidad", TrackSerial: trackSerial,
		ReorderPoint: reorderPoint, UnitPrice: decimal.Zero,
		Active: true, CreatedAt: time.Now(), UpdatedAt: time.Now(),
	}
	db.d.products[id] = p
	return p
}

// SeedBin registra un bin del tenant.
func (db *DB) SeedBin(orgID, id, code string) *entity.Bin {
	b := &entity.Bin{ID: id, OrganizationID: orgID, Code: entity.NormalizeBinCode(code), CreatedAt: time.Now()}
	db.d.bins[id] = b
	return b
}

// SeedLevel deja un nivel (producto, bin) en los valores dados.
func (db *DB) SeedLevel(orgID, productID, binID string, onHand, reserved int64) *entity.QuantityLevel {
	l := &entity.QuantityLevel{
		OrganizationID: orgID, ProductID: productID, BinID: binID,
		OnHand: onHand, Reserved: reserved, UpdatedAt: time.Now(),
	}
	db.d.levels[levelKey(productID, binID)] = l
	return l
}

// SeedSerial registra un serial disponible en un bin.
func (db *DB) SeedSerial(orgID, id, productID, serial, binID string) *entity.SerialItem {
	s := &entity.SerialItem{
		ID: id, OrganizationID: orgID, ProductID: productID, Serial: serial,
		BinID: &binID, Status: entity.SerialStatusAvailable,
		LastSeenAt: time.Now(), CreatedAt: time.Now(),
	}
	db.d.serials[id] = s
	return s
}

// Level devuelve el nivel crudo (o nil) para asserts.
func (db *DB) Level(productID, binID string) *entity.QuantityLevel {
	return db.d.levels[levelKey(productID, binID)]
}

// Serial devuelve el serial crudo (o nil) para asserts.
func (db *DB) Serial(id string) *entity.SerialItem {
	return db.d.serials[id]
}

// Movements devuelve el log completo para asserts.
func (db *DB) Movements() []*entity.Movement {
	return db.d.movements
}

func levelKey(productID, binID string) string {
	return productID + "|" + binID
}

func newID() string { return uuid.New().String() }

// visible decide si la entidad del tenant owner es visible en este ctx.
func visible(ctx context.Context, owner string) bool {
	if tenant.Bypassed(ctx) {
		return true
	}
	return owner == tenant.OrganizationID(ctx)
}
