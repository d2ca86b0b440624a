package billing_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/billy-api/internal/application/billing"
	"github.com/jhoicas/billy-api/internal/domain"
	"github.com/jhoicas/billy-api/internal/domain/dte"
	"github.com/jhoicas/billy-api/internal/domain/entity"
	"github.com/jhoicas/billy-api/internal/infrastructure/memory"
)

// ──────────────────────────────────────────────────────────────────────────────
// Dobles de prueba
// ──────────────────────────────────────────────────────────────────────────────

// scriptedAuthority responde con los veredictos en orden; el último se repite.
type scriptedAuthority struct {
	mu       sync.Mutex
	verdicts []bool
	calls    int
	onSubmit func()
}

func (a *scriptedAuthority) Submit(_ context.Context, doc billing.Document) (*billing.AuthorityResponse, error) {
	a.mu.Lock()
	i := a.calls
	a.calls++
	if i >= len(a.verdicts) {
		i = len(a.verdicts) - 1
	}
	ok := a.verdicts[i]
	hook := a.onSubmit
	a.mu.Unlock()
	if hook != nil {
		hook()
	}
	if ok {
		return &billing.AuthorityResponse{Accepted: true, Messages: []string{"Documento aceptado por DGII"}, TrackID: "TRK-" + doc.Filename}, nil
	}
	return &billing.AuthorityResponse{Accepted: false, Messages: []string{"Error en validación de datos"}}, nil
}

// hangingAuthority nunca responde antes del timeout.
type hangingAuthority struct{}

func (hangingAuthority) Submit(ctx context.Context, _ billing.Document) (*billing.AuthorityResponse, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

type fakeRenderer struct{}

func (fakeRenderer) Render(in billing.RenderInput) ([]byte, error) {
	return []byte("<dte numero=\"" + in.Sale.Number + "\" codigo=\"" + in.ControlCode + "\"/>"), nil
}

type recordingArchive struct {
	mu   sync.Mutex
	keys []string
}

func (a *recordingArchive) Put(_ context.Context, key string, _ []byte, _ string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.keys = append(a.keys, key)
	return nil
}

type env struct {
	store   *memory.Store
	sales   *memory.SaleRepository
	clients *memory.ClientRepository
	invs    *memory.InvoiceRepository
	archive *recordingArchive
	saleID  string
}

var fixedNow = time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC)

func newEnv(t *testing.T) *env {
	t.Helper()
	ctx := context.Background()
	s := memory.NewStore()
	e := &env{
		store:   s,
		sales:   memory.NewSaleRepository(s),
		clients: memory.NewClientRepository(s),
		invs:    memory.NewInvoiceRepository(s),
		archive: &recordingArchive{},
	}
	products := memory.NewProductRepository(s)
	for _, p := range []*entity.Product{
		{ID: "p1", SKU: "LAP-001", Name: "Laptop Dell Inspiron 15", Price: decimal.RequireFromString("850.00"), TaxRate: decimal.RequireFromString("0.13"), Status: entity.StatusActivo},
		{ID: "p2", SKU: "MOU-001", Name: "Mouse Inalámbrico Logitech", Price: decimal.RequireFromString("45.99"), TaxRate: decimal.RequireFromString("0.13"), Status: entity.StatusActivo},
	} {
		require.NoError(t, products.Create(ctx, p))
	}
	require.NoError(t, e.clients.Create(ctx, &entity.Client{
		ID: "c1", NIT: "0614-010190-101-1", Name: "Juan Pérez", Email: "juan@correo.com",
		FiscalProfile: entity.FiscalProfileResponsableIVA, Status: entity.StatusActivo,
	}))
	items := []entity.SaleLineItem{
		entity.NewLineItem("p1", "Laptop Dell Inspiron 15", 2, decimal.RequireFromString("850.00"), decimal.RequireFromString("0.13")),
		entity.NewLineItem("p2", "Mouse Inalámbrico Logitech", 2, decimal.RequireFromString("45.99"), decimal.RequireFromString("0.13")),
	}
	tot := entity.ComputeTotals(items)
	sale := &entity.Sale{
		ID: "s1", Date: fixedNow, ClientID: "c1", SellerID: "u2", Items: items,
		Subtotal: tot.Subtotal, TaxTotal: tot.TaxTotal, Total: tot.Total,
		Status: entity.SaleStatusPendiente, CreatedAt: fixedNow, UpdatedAt: fixedNow,
	}
	require.NoError(t, e.sales.Create(ctx, sale))
	e.saleID = sale.ID
	return e
}

func (e *env) service(authority billing.TaxAuthority, timeout time.Duration) *billing.IssuanceService {
	return billing.NewIssuanceService(billing.IssuanceDeps{
		Sales:     e.sales,
		Clients:   e.clients,
		Invoices:  e.invs,
		Tx:        memory.NewTxRunner(e.store),
		Renderer:  fakeRenderer{},
		Authority: authority,
		Archive:   e.archive,
	}, billing.IssuanceConfig{Emitter: dte.DefaultEmitter(), AuthorityTimeout: timeout}).
		WithClock(func() time.Time { return fixedNow })
}

var actor = entity.Actor{UserID: "u2", Role: entity.RoleCashier, IP: "127.0.0.1"}

// ──────────────────────────────────────────────────────────────────────────────
// Máquina de estados
// ──────────────────────────────────────────────────────────────────────────────

func TestIssueInvoice_AceptadoFacturaLaVenta(t *testing.T) {
	e := newEnv(t)
	svc := e.service(&scriptedAuthority{verdicts: []bool{true}}, time.Second)

	res, err := svc.IssueInvoice(context.Background(), e.saleID, actor)
	require.NoError(t, err)
	assert.Equal(t, entity.AuthorityStatusAceptado, res.Invoice.AuthorityStatus)
	assert.Equal(t, "TRK-V-000001.xml", res.Invoice.TrackID)
	assert.Len(t, res.Invoice.ControlCode, 96, "SHA-384 en hexadecimal")
	assert.Contains(t, res.Invoice.DocumentXML, "V-000001")
	require.NotNil(t, res.Invoice.RespondedAt)

	sale, _ := e.sales.GetByID(context.Background(), e.saleID)
	assert.Equal(t, entity.SaleStatusFacturada, sale.Status)
	assert.Equal(t, []string{"dte/2024/01/V-000001.xml"}, e.archive.keys)
}

func TestIssueInvoice_RechazoLuegoAceptacion(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	svc := e.service(&scriptedAuthority{verdicts: []bool{false, true}}, time.Second)

	first, err := svc.IssueInvoice(ctx, e.saleID, actor)
	require.NoError(t, err, "un rechazo no es un error")
	assert.Equal(t, entity.AuthorityStatusRechazado, first.Invoice.AuthorityStatus)
	assert.Equal(t, []string{"Error en validación de datos"}, first.Invoice.Messages)
	assert.ErrorIs(t, first.Invoice.Err(), domain.ErrAuthorityRejected)
	assert.ErrorContains(t, first.Invoice.Err(), "Error en validación de datos")

	sale, _ := e.sales.GetByID(ctx, e.saleID)
	assert.Equal(t, entity.SaleStatusPendiente, sale.Status)
	assert.Empty(t, e.archive.keys, "solo se archivan documentos aceptados")

	second, err := svc.IssueInvoice(ctx, e.saleID, actor)
	require.NoError(t, err)
	assert.Equal(t, entity.AuthorityStatusAceptado, second.Invoice.AuthorityStatus)
	assert.NoError(t, second.Invoice.Err())

	attempts, err := e.invs.ListBySale(ctx, e.saleID)
	require.NoError(t, err)
	require.Len(t, attempts, 2)
	assert.Equal(t, first.Invoice.ID, attempts[0].ID)
	assert.Equal(t, entity.AuthorityStatusRechazado, attempts[0].AuthorityStatus, "los intentos previos no se modifican")

	sale, _ = e.sales.GetByID(ctx, e.saleID)
	assert.Equal(t, entity.SaleStatusFacturada, sale.Status)
}

func TestIssueInvoice_VentaFacturadaEsEstadoInvalido(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	authority := &scriptedAuthority{verdicts: []bool{true}}
	svc := e.service(authority, time.Second)
	_, err := svc.IssueInvoice(ctx, e.saleID, actor)
	require.NoError(t, err)

	_, err = svc.IssueInvoice(ctx, e.saleID, actor)
	var invalid *domain.InvalidStateError
	require.ErrorAs(t, err, &invalid)
	assert.Equal(t, entity.SaleStatusFacturada, invalid.Current)

	attempts, _ := e.invs.ListBySale(ctx, e.saleID)
	assert.Len(t, attempts, 1, "no se crea un nuevo DTE")
	assert.Equal(t, 1, authority.calls, "no se contacta a la autoridad")
}

func TestIssueInvoice_VentaInexistente(t *testing.T) {
	e := newEnv(t)
	_, err := e.service(&scriptedAuthority{verdicts: []bool{true}}, time.Second).
		IssueInvoice(context.Background(), "nope", actor)
	var nf *domain.NotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, "Venta no encontrada", nf.Error())
}

func TestIssueInvoice_VentaAnuladaEsEstadoInvalido(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	require.NoError(t, e.sales.TransitionStatus(ctx, e.saleID, entity.SaleStatusPendiente, entity.SaleStatusAnulada, fixedNow))

	_, err := e.service(&scriptedAuthority{verdicts: []bool{true}}, time.Second).IssueInvoice(ctx, e.saleID, actor)
	assert.ErrorIs(t, err, domain.ErrInvalidState)
}

func TestIssueInvoice_TimeoutRegistraPendiente(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	res, err := e.service(hangingAuthority{}, 20*time.Millisecond).IssueInvoice(ctx, e.saleID, actor)
	require.NoError(t, err)
	assert.Equal(t, entity.AuthorityStatusPendiente, res.Invoice.AuthorityStatus)
	require.Len(t, res.Invoice.Messages, 1)
	assert.Contains(t, res.Invoice.Messages[0], "deadline exceeded")
	assert.Nil(t, res.Invoice.RespondedAt)
	assert.ErrorIs(t, res.Invoice.Err(), domain.ErrAuthorityUnavailable)
	assert.NotErrorIs(t, res.Invoice.Err(), domain.ErrAuthorityRejected)

	sale, _ := e.sales.GetByID(ctx, e.saleID)
	assert.Equal(t, entity.SaleStatusPendiente, sale.Status)
	attempts, _ := e.invs.ListBySale(ctx, e.saleID)
	assert.Len(t, attempts, 1)
}

func TestIssueInvoice_ConcurrenteUnSoloAceptado(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	svc := e.service(&scriptedAuthority{verdicts: []bool{true}}, time.Second)

	const n = 10
	var wg sync.WaitGroup
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = svc.IssueInvoice(ctx, e.saleID, actor)
		}(i)
	}
	wg.Wait()

	ok := 0
	for _, err := range errs {
		if err == nil {
			ok++
			continue
		}
		assert.ErrorIs(t, err, domain.ErrInvalidState)
	}
	assert.Equal(t, 1, ok)

	attempts, _ := e.invs.ListBySale(ctx, e.saleID)
	accepted := 0
	for _, a := range attempts {
		if a.Accepted() {
			accepted++
		}
	}
	assert.Equal(t, 1, accepted)
}

func TestIssueInvoice_CASFallidoNoDejaDTE(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	authority := &scriptedAuthority{verdicts: []bool{true}}
	// La venta se anula fuera del lock mientras la autoridad responde.
	authority.onSubmit = func() {
		_ = e.sales.TransitionStatus(ctx, e.saleID, entity.SaleStatusPendiente, entity.SaleStatusAnulada, fixedNow)
	}

	_, err := e.service(authority, time.Second).IssueInvoice(ctx, e.saleID, actor)
	assert.ErrorIs(t, err, domain.ErrInvalidState)

	attempts, _ := e.invs.ListBySale(ctx, e.saleID)
	assert.Empty(t, attempts)
	sale, _ := e.sales.GetByID(ctx, e.saleID)
	assert.Equal(t, entity.SaleStatusAnulada, sale.Status)
}

func TestIssueInvoice_CodigoDeControlDeterminista(t *testing.T) {
	a, b := newEnv(t), newEnv(t)
	ra, err := a.service(&scriptedAuthority{verdicts: []bool{false}}, time.Second).IssueInvoice(context.Background(), a.saleID, actor)
	require.NoError(t, err)
	rb, err := b.service(&scriptedAuthority{verdicts: []bool{false}}, time.Second).IssueInvoice(context.Background(), b.saleID, actor)
	require.NoError(t, err)
	assert.Equal(t, ra.Invoice.ControlCode, rb.Invoice.ControlCode)
	assert.Equal(t, ra.Invoice.DocumentXML, rb.Invoice.DocumentXML)
}

// ──────────────────────────────────────────────────────────────────────────────
// Consultas
// ──────────────────────────────────────────────────────────────────────────────

func TestInvoiceQuery_UltimoIntentoYFiltro(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	svc := e.service(&scriptedAuthority{verdicts: []bool{false, true}}, time.Second)
	_, err := svc.IssueInvoice(ctx, e.saleID, actor)
	require.NoError(t, err)
	second, err := svc.IssueInvoice(ctx, e.saleID, actor)
	require.NoError(t, err)

	q := billing.NewInvoiceQuery(e.invs, e.sales, e.clients)
	latest, err := q.LatestForSale(ctx, e.saleID)
	require.NoError(t, err)
	assert.Equal(t, second.Invoice.ID, latest.Invoice.ID)
	assert.Equal(t, "Juan Pérez", latest.Client.Name)

	rejected, err := q.List(ctx, entity.InvoiceFilter{AuthorityStatus: entity.AuthorityStatusRechazado})
	require.NoError(t, err)
	require.Len(t, rejected, 1)

	_, err = q.List(ctx, entity.InvoiceFilter{AuthorityStatus: "OTRO"})
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = q.LatestForSale(ctx, "nope")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

type fakePDF struct{}

func (fakePDF) Generate(_ context.Context, in billing.PDFInput) ([]byte, error) {
	if in.Invoice == nil {
		return nil, errors.New("sin dte")
	}
	return []byte("%PDF-" + in.Sale.Number), nil
}

func TestDocumentUseCase_PDFSoloAceptados(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	svc := e.service(&scriptedAuthority{verdicts: []bool{false, true}}, time.Second)
	rejected, err := svc.IssueInvoice(ctx, e.saleID, actor)
	require.NoError(t, err)
	accepted, err := svc.IssueInvoice(ctx, e.saleID, actor)
	require.NoError(t, err)

	uc := billing.NewDocumentUseCase(billing.NewInvoiceQuery(e.invs, e.sales, e.clients), fakePDF{})

	_, _, err = uc.DownloadInvoicePDF(ctx, rejected.Invoice.ID)
	assert.ErrorIs(t, err, domain.ErrInvalidState)

	pdf, name, err := uc.DownloadInvoicePDF(ctx, accepted.Invoice.ID)
	require.NoError(t, err)
	assert.Equal(t, "%PDF-V-000001", string(pdf))
	assert.Equal(t, "dte_V-000001.pdf", name)

	xml, name, err := uc.DownloadInvoiceXML(ctx, rejected.Invoice.ID)
	require.NoError(t, err)
	assert.Equal(t, rejected.Invoice.DocumentXML, string(xml))
	assert.Equal(t, "dte_V-000001_rechazado.xml", name)
}

// receiverPDF imprime solo los datos del receptor que recibe.
type receiverPDF struct{}

func (receiverPDF) Generate(_ context.Context, in billing.PDFInput) ([]byte, error) {
	c := in.Client
	return []byte(c.Name + "|" + c.NIT + "|" + c.Email + "|" + c.Phone + "|" + c.Address), nil
}

func TestDocumentUseCase_PDFConservaReceptorEmitido(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	accepted, err := e.service(&scriptedAuthority{verdicts: []bool{true}}, time.Second).IssueInvoice(ctx, e.saleID, actor)
	require.NoError(t, err)
	assert.Equal(t, "juan@correo.com", accepted.Invoice.Receiver.Email)

	uc := billing.NewDocumentUseCase(billing.NewInvoiceQuery(e.invs, e.sales, e.clients), receiverPDF{})
	before, _, err := uc.DownloadInvoicePDF(ctx, accepted.Invoice.ID)
	require.NoError(t, err)
	assert.Equal(t, "Juan Pérez|0614-010190-101-1|juan@correo.com||", string(before))

	email, phone, address := "otro@correo.com", "7777-8888", "Santa Ana"
	_, err = e.clients.Update(ctx, "c1", entity.ClientPatch{Email: &email, Phone: &phone, Address: &address}, fixedNow.Add(time.Hour))
	require.NoError(t, err)

	after, _, err := uc.DownloadInvoicePDF(ctx, accepted.Invoice.ID)
	require.NoError(t, err)
	assert.Equal(t, string(before), string(after), "editar el cliente no cambia un documento emitido")

	stored, err := e.invs.GetByID(ctx, accepted.Invoice.ID)
	require.NoError(t, err)
	assert.Equal(t, "juan@correo.com", stored.Receiver.Email)
}
