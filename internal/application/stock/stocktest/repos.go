package stocktest

import (
	"context"
	"sort"
	"time"

	"github.com/jhoicas/taller-api/internal/domain/entity"
	"github.com/jhoicas/taller-api/internal/domain/repository"
	"github.com/jhoicas/taller-api/internal/domain/tenant"
)

// Los fakes devuelven copias en las lecturas y guardan copias en las
// escrituras: una mutación solo persiste vía Update, igual que contra la base.

type levelRepo struct{ db *DB }

func (r *levelRepo) Get(ctx context.Context, productID, binID string) (*entity.QuantityLevel, error) {
	l, ok := r.db.d.levels[levelKey(productID, binID)]
	if !ok || !visible(ctx, l.OrganizationID) {
		return nil, nil
	}
	c := *l
	return &c, nil
}

func (r *levelRepo) GetForUpdate(ctx context.Context, productID, binID string) (*entity.QuantityLevel, error) {
	return r.Get(ctx, productID, binID)
}

func (r *levelRepo) Ensure(ctx context.Context, productID, binID string) (*entity.QuantityLevel, error) {
	if l, err := r.Get(ctx, productID, binID); err != nil || l != nil {
		return l, err
	}
	l := &entity.QuantityLevel{
		OrganizationID: tenant.OrganizationID(ctx),
		ProductID:      productID,
		BinID:          binID,
		UpdatedAt:      time.Now(),
	}
	r.db.d.levels[levelKey(productID, binID)] = l
	c := *l
	return &c, nil
}

func (r *levelRepo) ListByProduct(ctx context.Context, productID string) ([]*entity.QuantityLevel, error) {
	var out []*entity.QuantityLevel
	for _, l := range r.db.d.levels {
		if l.ProductID == productID && visible(ctx, l.OrganizationID) {
			c := *l
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].BinID < out[j].BinID })
	return out, nil
}

func (r *levelRepo) ListByProductForUpdate(ctx context.Context, productID string) ([]*entity.QuantityLevel, error) {
	return r.ListByProduct(ctx, productID)
}

func (r *levelRepo) Update(ctx context.Context, level *entity.QuantityLevel) error {
	c := *level
	c.UpdatedAt = time.Now()
	r.db.d.levels[levelKey(level.ProductID, level.BinID)] = &c
	return nil
}

func (r *levelRepo) Overview(ctx context.Context) ([]repository.ProductStockOverview, error) {
	org := tenant.OrganizationID(ctx)
	var out []repository.ProductStockOverview
	for _, p := range r.db.d.products {
		if p.OrganizationID != org || !p.Active {
			continue
		}
		row := repository.ProductStockOverview{
			ProductID:    p.ID,
			SKU:          p.SKU,
			Name:         p.Name,
			TrackSerial:  p.TrackSerial,
			ReorderPoint: p.ReorderPoint,
		}
		for _, l := range r.db.d.levels {
			if l.ProductID == p.ID {
				row.OnHand += l.OnHand
				row.Reserved += l.Reserved
			}
		}
		row.Available = row.OnHand - row.Reserved
		out = append(out, row)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SKU < out[j].SKU })
	return out, nil
}

func (r *levelRepo) ListAtOrBelowReorderPoint(ctx context.Context, organizationID string) ([]repository.LowStockItem, error) {
	var out []repository.LowStockItem
	for _, p := range r.db.d.products {
		if p.OrganizationID != organizationID || !p.Active {
			continue
		}
		var available int64
		for _, l := range r.db.d.levels {
			if l.ProductID == p.ID {
				available += l.OnHand - l.Reserved
			}
		}
		if available <= p.ReorderPoint {
			out = append(out, repository.LowStockItem{
				ProductID:    p.ID,
				SKU:          p.SKU,
				Name:         p.Name,
				Available:    available,
				ReorderPoint: p.ReorderPoint,
				LeadTimeDays: p.LeadTimeDays,
			})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SKU < out[j].SKU })
	return out, nil
}

type movementRepo struct{ db *DB }

func (r *movementRepo) Create(ctx context.Context, m *entity.Movement) error {
	c := *m
	r.db.d.movements = append(r.db.d.movements, &c)
	return nil
}

func (r *movementRepo) ListByProduct(ctx context.Context, productID string, limit, offset int) ([]*entity.Movement, error) {
	var out []*entity.Movement
	for i := len(r.db.d.movements) - 1; i >= 0; i-- {
		m := r.db.d.movements[i]
		if m.ProductID == productID && visible(ctx, m.OrganizationID) {
			c := *m
			out = append(out, &c)
		}
	}
	if offset > 0 {
		if offset >= len(out) {
			return nil, nil
		}
		out = out[offset:]
	}
	if limit > 0 && limit < len(out) {
		out = out[:limit]
	}
	return out, nil
}

func (r *movementRepo) ReservedDistribution(ctx context.Context, owner entity.OwnerRef, productID string) (map[string]int64, error) {
	dist := map[string]int64{}
	for _, m := range r.db.d.movements {
		if m.ProductID != productID || !visible(ctx, m.OrganizationID) || !ownerMatches(owner, m) {
			continue
		}
		if m.FromBinID == nil {
			continue
		}
		switch m.Reason {
		case entity.MoveReasonReserve:
			dist[*m.FromBinID] += m.Qty
		case entity.MoveReasonRelease, entity.MoveReasonPick, entity.MoveReasonInvoiceSale:
			dist[*m.FromBinID] -= m.Qty
		}
	}
	for bin, qty := range dist {
		if qty <= 0 {
			delete(dist, bin)
		}
	}
	return dist, nil
}

func ownerMatches(o entity.OwnerRef, m *entity.Movement) bool {
	eq := func(want, got *string) bool {
		if want == nil {
			return true
		}
		return got != nil && *got == *want
	}
	if o.WorkOrderID == nil && o.WorkOrderPartID == nil && o.SaleID == nil && o.SaleItemID == nil {
		return false
	}
	return eq(o.WorkOrderID, m.WorkOrderID) &&
		eq(o.WorkOrderPartID, m.WorkOrderPartID) &&
		eq(o.SaleID, m.SaleID) &&
		eq(o.SaleItemID, m.SaleItemID)
}

type serialRepo struct{ db *DB }

func (r *serialRepo) GetForUpdate(ctx context.Context, id string) (*entity.SerialItem, error) {
	s, ok := r.db.d.serials[id]
	if !ok || !visible(ctx, s.OrganizationID) {
		return nil, nil
	}
	c := *s
	return &c, nil
}

func (r *serialRepo) GetBySerialForUpdate(ctx context.Context, productID, serial string) (*entity.SerialItem, error) {
	for _, s := range r.db.d.serials {
		if s.ProductID == productID && s.Serial == serial && visible(ctx, s.OrganizationID) {
			c := *s
			return &c, nil
		}
	}
	return nil, nil
}

func (r *serialRepo) ListByIDsForUpdate(ctx context.Context, ids []string) ([]*entity.SerialItem, error) {
	var out []*entity.SerialItem
	for _, id := range ids {
		if s, ok := r.db.d.serials[id]; ok && visible(ctx, s.OrganizationID) {
			c := *s
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].ProductID != out[j].ProductID {
			return out[i].ProductID < out[j].ProductID
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (r *serialRepo) ListByProduct(ctx context.Context, productID string) ([]*entity.SerialItem, error) {
	var out []*entity.SerialItem
	for _, s := range r.db.d.serials {
		if s.ProductID == productID && visible(ctx, s.OrganizationID) {
			c := *s
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Serial < out[j].Serial })
	return out, nil
}

func (r *serialRepo) Create(ctx context.Context, s *entity.SerialItem) error {
	c := *s
	r.db.d.serials[s.ID] = &c
	return nil
}

func (r *serialRepo) Update(ctx context.Context, s *entity.SerialItem) error {
	c := *s
	r.db.d.serials[s.ID] = &c
	return nil
}

func (r *serialRepo) UpsertAvailable(ctx context.Context, productID, serial, binID string) (*entity.SerialItem, error) {
	if existing, _ := r.GetBySerialForUpdate(ctx, productID, serial); existing != nil {
		existing.Status = entity.SerialStatusAvailable
		existing.BinID = &binID
		existing.WorkOrderID = nil
		existing.LastSeenAt = time.Now()
		if err := r.Update(ctx, existing); err != nil {
			return nil, err
		}
		return existing, nil
	}
	s := &entity.SerialItem{
		ID:             newID(),
		OrganizationID: tenant.OrganizationID(ctx),
		ProductID:      productID,
		Serial:         serial,
		BinID:          &binID,
		Status:         entity.SerialStatusAvailable,
		LastSeenAt:     time.Now(),
		CreatedAt:      time.Now(),
	}
	if err := r.Create(ctx, s); err != nil {
		return nil, err
	}
	c := *s
	return &c, nil
}

func (r *serialRepo) CreateAssignment(ctx context.Context, a *entity.SerialAssignment) error {
	c := *a
	r.db.d.assignments = append(r.db.d.assignments, &c)
	return nil
}

func (r *serialRepo) LatestAssignment(ctx context.Context, serialItemID, workOrderPartID string) (*entity.SerialAssignment, error) {
	for i := len(r.db.d.assignments) - 1; i >= 0; i-- {
		a := r.db.d.assignments[i]
		if a.SerialItemID == serialItemID && a.WorkOrderPartID == workOrderPartID {
			c := *a
			return &c, nil
		}
	}
	return nil, nil
}

type productRepo struct{ db *DB }

func (r *productRepo) Create(ctx context.Context, p *entity.Product) error {
	c := *p
	r.db.d.products[p.ID] = &c
	return nil
}

func (r *productRepo) GetByID(ctx context.Context, id string) (*entity.Product, error) {
	p, ok := r.db.d.products[id]
	if !ok || !visible(ctx, p.OrganizationID) {
		return nil, nil
	}
	c := *p
	return &c, nil
}

func (r *productRepo) GetBySKU(ctx context.Context, sku string) (*entity.Product, error) {
	for _, p := range r.db.d.products {
		if p.SKU == sku && visible(ctx, p.OrganizationID) {
			c := *p
			return &c, nil
		}
	}
	return nil, nil
}

func (r *productRepo) List(ctx context.Context, limit, offset int) ([]*entity.Product, error) {
	var out []*entity.Product
	for _, p := range r.db.d.products {
		if visible(ctx, p.OrganizationID) {
			c := *p
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SKU < out[j].SKU })
	return page(out, limit, offset), nil
}

func (r *productRepo) Update(ctx context.Context, p *entity.Product) error {
	c := *p
	c.UpdatedAt = time.Now()
	r.db.d.products[p.ID] = &c
	return nil
}

type binRepo struct{ db *DB }

func (r *binRepo) Create(ctx context.Context, b *entity.Bin) error {
	c := *b
	r.db.d.bins[b.ID] = &c
	return nil
}

func (r *binRepo) GetByID(ctx context.Context, id string) (*entity.Bin, error) {
	b, ok := r.db.d.bins[id]
	if !ok || !visible(ctx, b.OrganizationID) {
		return nil, nil
	}
	c := *b
	return &c, nil
}

func (r *binRepo) GetByCode(ctx context.Context, code string) (*entity.Bin, error) {
	for _, b := range r.db.d.bins {
		if b.Code == code && visible(ctx, b.OrganizationID) {
			c := *b
			return &c, nil
		}
	}
	return nil, nil
}

func (r *binRepo) List(ctx context.Context) ([]*entity.Bin, error) {
	var out []*entity.Bin
	for _, b := range r.db.d.bins {
		if visible(ctx, b.OrganizationID) {
			c := *b
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out, nil
}

type workOrderRepo struct{ db *DB }

func (r *workOrderRepo) Create(ctx context.Context, wo *entity.WorkOrder) error {
	c := *wo
	c.Parts = nil
	r.db.d.workOrders[wo.ID] = &c
	for _, p := range wo.Parts {
		pc := *p
		r.db.d.parts[p.ID] = &pc
	}
	return nil
}

func (r *workOrderRepo) GetByID(ctx context.Context, id string) (*entity.WorkOrder, error) {
	wo, ok := r.db.d.workOrders[id]
	if !ok || !visible(ctx, wo.OrganizationID) {
		return nil, nil
	}
	c := *wo
	for _, p := range r.db.d.parts {
		if p.WorkOrderID == id {
			pc := *p
			c.Parts = append(c.Parts, &pc)
		}
	}
	sort.Slice(c.Parts, func(i, j int) bool { return c.Parts[i].ID < c.Parts[j].ID })
	return &c, nil
}

func (r *workOrderRepo) GetForUpdate(ctx context.Context, id string) (*entity.WorkOrder, error) {
	return r.GetByID(ctx, id)
}

func (r *workOrderRepo) GetPartForUpdate(ctx context.Context, partID string) (*entity.WorkOrderPart, error) {
	p, ok := r.db.d.parts[partID]
	if !ok {
		return nil, nil
	}
	if wo, okWO := r.db.d.workOrders[p.WorkOrderID]; !okWO || !visible(ctx, wo.OrganizationID) {
		return nil, nil
	}
	c := *p
	return &c, nil
}

func (r *workOrderRepo) UpdatePart(ctx context.Context, p *entity.WorkOrderPart) error {
	c := *p
	c.UpdatedAt = time.Now()
	r.db.d.parts[p.ID] = &c
	return nil
}

func (r *workOrderRepo) UpdateStatus(ctx context.Context, id, status string) error {
	if wo, ok := r.db.d.workOrders[id]; ok {
		wo.Status = status
		wo.UpdatedAt = time.Now()
	}
	return nil
}

func (r *workOrderRepo) AppendStatusLog(ctx context.Context, l *entity.WorkOrderStatusLog) error {
	c := *l
	r.db.d.statusLog = append(r.db.d.statusLog, &c)
	return nil
}

func (r *workOrderRepo) ListStatusLog(ctx context.Context, workOrderID string) ([]*entity.WorkOrderStatusLog, error) {
	var out []*entity.WorkOrderStatusLog
	for _, l := range r.db.d.statusLog {
		if l.WorkOrderID == workOrderID {
			c := *l
			out = append(out, &c)
		}
	}
	return out, nil
}

type saleRepo struct{ db *DB }

func (r *saleRepo) Create(ctx context.Context, s *entity.Sale) error {
	c := *s
	c.Items = nil
	r.db.d.sales[s.ID] = &c
	for _, i := range s.Items {
		ic := *i
		r.db.d.saleItems[i.ID] = &ic
	}
	return nil
}

func (r *saleRepo) GetByID(ctx context.Context, id string) (*entity.Sale, error) {
	s, ok := r.db.d.sales[id]
	if !ok || !visible(ctx, s.OrganizationID) {
		return nil, nil
	}
	c := *s
	for _, i := range r.db.d.saleItems {
		if i.SaleID == id {
			ic := *i
			c.Items = append(c.Items, &ic)
		}
	}
	sort.Slice(c.Items, func(i, j int) bool { return c.Items[i].ID < c.Items[j].ID })
	return &c, nil
}

func (r *saleRepo) GetForUpdate(ctx context.Context, id string) (*entity.Sale, error) {
	return r.GetByID(ctx, id)
}

func (r *saleRepo) Update(ctx context.Context, s *entity.Sale) error {
	c := *s
	c.Items = nil
	c.UpdatedAt = time.Now()
	r.db.d.sales[s.ID] = &c
	return nil
}

func (r *saleRepo) UpdateItem(ctx context.Context, i *entity.SaleItem) error {
	c := *i
	c.UpdatedAt = time.Now()
	r.db.d.saleItems[i.ID] = &c
	return nil
}

type purchaseOrderRepo struct{ db *DB }

func (r *purchaseOrderRepo) Create(ctx context.Context, po *entity.PurchaseOrder) error {
	c := *po
	c.Lines = nil
	r.db.d.pos[po.ID] = &c
	for _, l := range po.Lines {
		lc := *l
		r.db.d.poLines[l.ID] = &lc
	}
	return nil
}

func (r *purchaseOrderRepo) GetByID(ctx context.Context, id string) (*entity.PurchaseOrder, error) {
	po, ok := r.db.d.pos[id]
	if !ok || !visible(ctx, po.OrganizationID) {
		return nil, nil
	}
	c := *po
	for _, l := range r.db.d.poLines {
		if l.PurchaseOrderID == id {
			lc := *l
			c.Lines = append(c.Lines, &lc)
		}
	}
	sort.Slice(c.Lines, func(i, j int) bool { return c.Lines[i].ID < c.Lines[j].ID })
	return &c, nil
}

func (r *purchaseOrderRepo) GetForUpdate(ctx context.Context, id string) (*entity.PurchaseOrder, error) {
	return r.GetByID(ctx, id)
}

func (r *purchaseOrderRepo) UpdateLine(ctx context.Context, l *entity.PurchaseOrderLine) error {
	c := *l
	c.UpdatedAt = time.Now()
	r.db.d.poLines[l.ID] = &c
	return nil
}

func (r *purchaseOrderRepo) UpdateStatus(ctx context.Context, id, status string) error {
	if po, ok := r.db.d.pos[id]; ok {
		po.Status = status
		po.UpdatedAt = time.Now()
	}
	return nil
}

type customerRepo struct{ db *DB }

func (r *customerRepo) Create(ctx context.Context, c *entity.Customer) error {
	cc := *c
	r.db.d.customers[c.ID] = &cc
	return nil
}

func (r *customerRepo) GetByID(ctx context.Context, id string) (*entity.Customer, error) {
	c, ok := r.db.d.customers[id]
	if !ok || !visible(ctx, c.OrganizationID) {
		return nil, nil
	}
	cc := *c
	return &cc, nil
}

func (r *customerRepo) List(ctx context.Context, limit, offset int) ([]*entity.Customer, error) {
	var out []*entity.Customer
	for _, c := range r.db.d.customers {
		if visible(ctx, c.OrganizationID) {
			cc := *c
			out = append(out, &cc)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return page(out, limit, offset), nil
}

// OrgRepo expone el repo de organizaciones fake (no es parte de stock.Repos).
func (db *DB) OrgRepo() repository.OrganizationRepository {
	return &orgRepo{db}
}

type orgRepo struct{ db *DB }

func (r *orgRepo) Create(ctx context.Context, o *entity.Organization) error {
	c := *o
	r.db.d.orgs[o.ID] = &c
	return nil
}

func (r *orgRepo) GetByID(ctx context.Context, id string) (*entity.Organization, error) {
	o, ok := r.db.d.orgs[id]
	if !ok || !visible(ctx, o.ID) {
		return nil, nil
	}
	c := *o
	return &c, nil
}

func (r *orgRepo) Update(ctx context.Context, o *entity.Organization) error {
	c := *o
	c.UpdatedAt = time.Now()
	r.db.d.orgs[o.ID] = &c
	return nil
}

func (r *orgRepo) ListIDs(ctx context.Context) ([]string, error) {
	ids := make([]string, 0, len(r.db.d.orgs))
	for id := range r.db.d.orgs {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

func page[T any](in []T, limit, offset int) []T {
	if offset > 0 {
		if offset >= len(in) {
			return nil
		}
		in = in[offset:]
	}
	if limit > 0 && limit < len(in) {
		in = in[:limit]
	}
	return in
}
