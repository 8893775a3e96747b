package inventory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/inventario-ledger/internal/application/ports"
	"github.com/jhoicas/inventario-ledger/internal/domain"
	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
	domaininv "github.com/jhoicas/inventario-ledger/internal/domain/inventory"
	"github.com/jhoicas/inventario-ledger/internal/domain/repository"
)

// ProductState estado de un producto tras una operación del ledger.
type ProductState struct {
	Product  *entity.Product
	Levels   []*entity.StockLevel
	Movement *entity.StockMovement // nil si la operación no anexó movimiento
}

// Available stock vendible derivado.
func (s *ProductState) Available() decimal.Decimal {
	return s.Product.Available()
}

// StockLedger dueño exclusivo de Stock y ReservedStock. Toda escritura de contadores pasa
// por una Unit abierta con Atomically: relee el estado, aplica la tabla de efectos, verifica
// invariantes y escribe producto, niveles y movimiento en la misma transacción.
type StockLedger struct {
	tx       TxRunner
	notifier ports.ChangeNotifier
	retry    RetryPolicy
	log      zerolog.Logger
	now      func() time.Time
}

// NewStockLedger construye el ledger. notifier puede ser nil.
func NewStockLedger(tx TxRunner, notifier ports.ChangeNotifier, retry RetryPolicy, log zerolog.Logger) *StockLedger {
	return &StockLedger{
		tx:       tx,
		notifier: notifier,
		retry:    retry,
		log:      log,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// ApplyMovement aplica un movimiento IN, OUT, TRANSFER o ADJUSTMENT y lo anexa al log.
func (l *StockLedger) ApplyMovement(ctx context.Context, m entity.StockMovement, actor Actor) (*ProductState, error) {
	var state *ProductState
	err := l.Atomically(ctx, "apply_movement", func(ctx context.Context, u *Unit) error {
		mv := m
		mv.UserID, mv.UserName = actor.UserID, actor.UserName
		st, err := u.Apply(ctx, &mv)
		if err != nil {
			return err
		}
		state = st
		return nil
	})
	if err != nil {
		return nil, err
	}
	return state, nil
}

// Atomically ejecuta fn como una unidad de trabajo. Ante conflicto de concurrencia la
// repite completa según la política de reintentos; al confirmar, notifica los productos tocados.
func (l *StockLedger) Atomically(ctx context.Context, op string, fn func(ctx context.Context, u *Unit) error) error {
	var committed *Unit
	err := l.retry.Do(ctx, l.log, op, func() error {
		return l.tx.Run(ctx, func(r Repos) error {
			u := newUnit(r, l.now)
			if err := fn(ctx, u); err != nil {
				return err
			}
			committed = u
			return nil
		})
	})
	if err != nil {
		return err
	}
	l.afterCommit(ctx, op, committed)
	return nil
}

func (l *StockLedger) afterCommit(ctx context.Context, op string, u *Unit) {
	if u == nil || len(u.touched) == 0 {
		return
	}

	byCompany := make(map[string][]string)
	for id, p := range u.touched {
		byCompany[p.CompanyID] = append(byCompany[p.CompanyID], id)
		if p.IsLowStock() {
			l.log.Warn().
				Str("product_id", p.ID).
				Str("product", p.Name).
				Str("available", p.Available().String()).
				Str("threshold", p.LowStockThreshold.String()).
				Msg("stock bajo")
		}
	}
	l.log.Debug().Str("op", op).Int("movements", len(u.movements)).Int("products", len(u.touched)).Msg("ledger confirmado")

	if l.notifier == nil {
		return
	}
	for companyID, ids := range byCompany {
		sort.Strings(ids)
		ev := ports.ChangeEvent{CompanyID: companyID, ProductIDs: ids, At: l.now()}
		if err := l.notifier.Publish(ctx, ev); err != nil {
			l.log.Error().Err(err).Str("company_id", companyID).Msg("publicar cambios del ledger")
		}
	}
}

// ── Unit ───────────────────────────────────────────────────────────────────────

// Unit unidad de trabajo en curso. Sus métodos son los únicos que escriben contadores.
type Unit struct {
	Repos
	now       func() time.Time
	touched   map[string]*entity.Product
	movements []*entity.StockMovement
}

func newUnit(r Repos, now func() time.Time) *Unit {
	return &Unit{Repos: r, now: now, touched: make(map[string]*entity.Product)}
}

// Product lee el producto dentro de la transacción verificando que pertenezca a la empresa.
func (u *Unit) Product(ctx context.Context, companyID, productID string) (*entity.Product, error) {
	p, err := u.Products.GetByID(ctx, productID)
	if err != nil {
		return nil, fmt.Errorf("leer producto: %w", err)
	}
	if p == nil || p.CompanyID != companyID {
		return nil, fmt.Errorf("producto %s: %w", productID, domain.ErrNotFound)
	}
	return p, nil
}

// CheckLocation verifica que la ubicación exista y sea de la empresa.
func (u *Unit) CheckLocation(ctx context.Context, companyID, locationID string) error {
	loc, err := u.Locations.GetByID(ctx, locationID)
	if err != nil {
		return fmt.Errorf("leer ubicación: %w", err)
	}
	if loc == nil || loc.CompanyID != companyID {
		return &domain.InvalidLocationError{LocationID: locationID, Reason: "desconocida"}
	}
	return nil
}

// Apply valida el movimiento, aplica sus efectos por ubicación y sobre el producto,
// y lo anexa al log. Cualquier error deja la transacción para rollback.
func (u *Unit) Apply(ctx context.Context, m *entity.StockMovement) (*ProductState, error) {
	if err := domaininv.Validate(m); err != nil {
		return nil, err
	}
	p, err := u.Product(ctx, m.CompanyID, m.ProductID)
	if err != nil {
		return nil, err
	}
	for _, loc := range []string{m.FromLocationID, m.ToLocationID} {
		if loc == "" {
			continue
		}
		if err := u.CheckLocation(ctx, m.CompanyID, loc); err != nil {
			return nil, err
		}
	}
	m.ProductName = p.Name

	for _, eff := range domaininv.Effects(m) {
		level, err := u.Levels.Get(ctx, p.ID, eff.LocationID)
		if err != nil {
			return nil, fmt.Errorf("leer nivel de stock: %w", err)
		}
		if err := domaininv.ApplyToLevel(level, eff.Delta); err != nil {
			return nil, err
		}
		level.UpdatedAt = u.now()
		if err := u.Levels.Save(ctx, level); err != nil {
			return nil, fmt.Errorf("guardar nivel de stock: %w", err)
		}
	}

	if net := domaininv.NetEffect(m); !net.IsZero() {
		if err := domaininv.ApplyToProduct(p, net); err != nil {
			return nil, err
		}
		if err := u.saveCounters(ctx, p); err != nil {
			return nil, err
		}
	}

	if _, err := AppendMovement(ctx, u.Movements, m); err != nil {
		return nil, err
	}
	u.movements = append(u.movements, m)
	u.touched[p.ID] = p

	return u.state(ctx, p, m)
}

// Reserve compromete qty del disponible en la ubicación indicada.
func (u *Unit) Reserve(ctx context.Context, p *entity.Product, locationID string, qty decimal.Decimal) error {
	level, err := u.Levels.Get(ctx, p.ID, locationID)
	if err != nil {
		return fmt.Errorf("leer nivel de stock: %w", err)
	}
	if err := domaininv.Reserve(p, level, qty); err != nil {
		return err
	}
	return u.saveReservation(ctx, p, level)
}

// Release libera qty reservada en la ubicación.
func (u *Unit) Release(ctx context.Context, p *entity.Product, locationID string, qty decimal.Decimal) error {
	level, err := u.Levels.Get(ctx, p.ID, locationID)
	if err != nil {
		return fmt.Errorf("leer nivel de stock: %w", err)
	}
	if err := domaininv.Release(p, level, qty); err != nil {
		return err
	}
	return u.saveReservation(ctx, p, level)
}

// ResetReserved reescribe lo reservado por ubicación (reparación a partir de ventas pendientes).
func (u *Unit) ResetReserved(ctx context.Context, p *entity.Product, byLocation map[string]decimal.Decimal) (*ProductState, error) {
	levels, err := u.Levels.ListByProduct(ctx, p.ID)
	if err != nil {
		return nil, fmt.Errorf("listar niveles de stock: %w", err)
	}
	seen := make(map[string]bool, len(levels))
	total := decimal.Zero
	for _, level := range levels {
		seen[level.LocationID] = true
		want := byLocation[level.LocationID]
		if want.GreaterThan(level.Quantity) {
			return nil, &domain.InsufficientStockError{ProductID: p.ID, LocationID: level.LocationID, Requested: want, Available: level.Quantity}
		}
		total = total.Add(want)
		if want.Equal(level.Reserved) {
			continue
		}
		level.Reserved = want
		level.UpdatedAt = u.now()
		if err := u.Levels.Save(ctx, level); err != nil {
			return nil, fmt.Errorf("guardar nivel de stock: %w", err)
		}
	}
	for loc, want := range byLocation {
		if !seen[loc] && want.IsPositive() {
			return nil, &domain.InsufficientStockError{ProductID: p.ID, LocationID: loc, Requested: want, Available: decimal.Zero}
		}
	}

	p.ReservedStock = total
	if err := domaininv.CheckInvariants(p); err != nil {
		return nil, err
	}
	if err := u.saveCounters(ctx, p); err != nil {
		return nil, err
	}
	u.touched[p.ID] = p
	return u.state(ctx, p, nil)
}

// Touch marca el producto como cambiado para notificarlo al confirmar.
func (u *Unit) Touch(p *entity.Product) {
	u.touched[p.ID] = p
}

// State lee el estado actual del producto con su reparto por ubicación.
func (u *Unit) State(ctx context.Context, p *entity.Product) (*ProductState, error) {
	return u.state(ctx, p, nil)
}

func (u *Unit) saveReservation(ctx context.Context, p *entity.Product, level *entity.StockLevel) error {
	level.UpdatedAt = u.now()
	if err := u.Levels.Save(ctx, level); err != nil {
		return fmt.Errorf("guardar nivel de stock: %w", err)
	}
	if err := u.saveCounters(ctx, p); err != nil {
		return err
	}
	u.touched[p.ID] = p
	return nil
}

func (u *Unit) saveCounters(ctx context.Context, p *entity.Product) error {
	p.UpdatedAt = u.now()
	if err := u.Products.UpdateCounters(ctx, p); err != nil {
		return fmt.Errorf("guardar contadores: %w", err)
	}
	return nil
}

func (u *Unit) state(ctx context.Context, p *entity.Product, m *entity.StockMovement) (*ProductState, error) {
	levels, err := u.Levels.ListByProduct(ctx, p.ID)
	if err != nil {
		return nil, fmt.Errorf("listar niveles de stock: %w", err)
	}
	cp := *p
	return &ProductState{Product: &cp, Levels: levels, Movement: m}, nil
}

// ── Verificación ───────────────────────────────────────────────────────────────

// Drift diferencia entre el contador guardado y el replay del log. LocationID vacío = producto.
type Drift struct {
	ProductID  string
	LocationID string
	Recorded   decimal.Decimal
	Replayed   decimal.Decimal
}

// Verify recalcula el stock del producto sumando todos sus movimientos desde cero
// y lo compara con los contadores. No escribe nada.
func (l *StockLedger) Verify(ctx context.Context, companyID, productID string) ([]Drift, error) {
	var drifts []Drift
	err := l.Atomically(ctx, "verify", func(ctx context.Context, u *Unit) error {
		drifts = nil
		p, err := u.Product(ctx, companyID, productID)
		if err != nil {
			return err
		}
		movs, err := u.Movements.Query(ctx, repository.MovementQuery{CompanyID: companyID, ProductID: productID})
		if err != nil {
			return fmt.Errorf("consultar movimientos: %w", err)
		}
		if total := domaininv.Replay(movs)[productID]; !total.Equal(p.Stock) {
			drifts = append(drifts, Drift{ProductID: productID, Recorded: p.Stock, Replayed: total})
		}

		replayed := domaininv.ReplayLevels(movs)[productID]
		levels, err := u.Levels.ListByProduct(ctx, productID)
		if err != nil {
			return fmt.Errorf("listar niveles de stock: %w", err)
		}
		seen := make(map[string]bool, len(levels))
		for _, level := range levels {
			seen[level.LocationID] = true
			if want := replayed[level.LocationID]; !want.Equal(level.Quantity) {
				drifts = append(drifts, Drift{ProductID: productID, LocationID: level.LocationID, Recorded: level.Quantity, Replayed: want})
			}
		}
		for loc, want := range replayed {
			if !seen[loc] && !want.IsZero() {
				drifts = append(drifts, Drift{ProductID: productID, LocationID: loc, Recorded: decimal.Zero, Replayed: want})
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	for _, d := range drifts {
		l.log.Error().
			Str("product_id", d.ProductID).
			Str("location_id", d.LocationID).
			Str("recorded", d.Recorded.String()).
			Str("replayed", d.Replayed.String()).
			Msg("contador no coincide con el log")
	}
	return drifts, nil
}
