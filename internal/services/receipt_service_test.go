package services

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"tailor-billing-api/internal/billing"
	"tailor-billing-api/internal/locking"
	"tailor-billing-api/internal/models"
	"tailor-billing-api/internal/repositories"
	"tailor-billing-api/internal/repositories/sqlite"
)

func TestReceiptService_CreateReceipt(t *testing.T) {
	tests := []struct {
		name         string
		prior        []models.Money
		amount       models.Money
		discount     models.Money
		wantErr      error
		wantType     models.PaymentType
		wantStatus   models.PaymentStatus
		wantDueAfter models.Money
	}{
		{
			name:         "full payment settles the bill",
			amount:       models.Units(1000),
			wantType:     models.PaymentTypeFullyPaid,
			wantStatus:   models.PaymentStatusPaid,
			wantDueAfter: 0,
		},
		{
			name:         "advance leaves a balance",
			amount:       models.Units(400),
			wantType:     models.PaymentTypeAdvance,
			wantStatus:   models.PaymentStatusPartiallyPaid,
			wantDueAfter: models.Units(600),
		},
		{
			name:         "one unit short is an advance",
			amount:       models.Units(1000) - 1,
			wantType:     models.PaymentTypeAdvance,
			wantStatus:   models.PaymentStatusPartiallyPaid,
			wantDueAfter: 1,
		},
		{
			name:         "discount completes the payment",
			prior:        []models.Money{models.Units(400)},
			amount:       models.Units(550),
			discount:     models.Units(50),
			wantType:     models.PaymentTypeFullyPaid,
			wantStatus:   models.PaymentStatusPaid,
			wantDueAfter: 0,
		},
		{
			name:    "overpayment beyond tolerance",
			prior:   []models.Money{models.Units(400)},
			amount:  models.Units(610),
			wantErr: billing.ErrOverpaymentExceeded,
		},
		{
			name:    "overpayment within tolerance still exceeds due",
			prior:   []models.Money{models.Units(400)},
			amount:  models.Units(603),
			wantErr: billing.ErrNetPaymentExceedsDue,
		},
		{
			name:    "bill already paid",
			prior:   []models.Money{models.Units(1000)},
			amount:  models.Units(1),
			wantErr: billing.ErrBillAlreadyPaid,
		},
		{
			name:    "zero amount",
			amount:  0,
			wantErr: billing.ErrInvalidAmount,
		},
		{
			name:     "negative discount",
			amount:   models.Units(100),
			discount: models.Units(-10),
			wantErr:  billing.ErrInvalidDiscount,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			services, store := setupServices(t)
			ctx := context.Background()
			bill := createBill(t, services.BillService, models.Units(600), models.Units(400))

			for _, p := range tt.prior {
				if _, err := services.ReceiptService.CreateReceipt(ctx, pay(bill.BillNumber, p)); err != nil {
					t.Fatalf("prior receipt error = %v", err)
				}
			}

			req := pay(bill.BillNumber, tt.amount)
			req.Discount = tt.discount
			receipt, err := services.ReceiptService.CreateReceipt(ctx, req)

			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("CreateReceipt() error = %v, want %v", err, tt.wantErr)
				}
				count, _ := store.Receipts().Count(ctx, models.ReceiptFilter{BillNumber: bill.BillNumber})
				if count != int64(len(tt.prior)) {
					t.Errorf("receipts stored = %d, want %d", count, len(tt.prior))
				}
				return
			}
			if err != nil {
				t.Fatalf("CreateReceipt() error = %v", err)
			}
			if receipt.PaymentType != tt.wantType {
				t.Errorf("PaymentType = %v, want %v", receipt.PaymentType, tt.wantType)
			}

			stored, err := store.Bills().GetByNumber(ctx, bill.BillNumber)
			if err != nil {
				t.Fatalf("GetByNumber() error = %v", err)
			}
			if stored.PaymentStatus != tt.wantStatus || stored.DueAmount != tt.wantDueAfter {
				t.Errorf("bill status = %v due %v, want %v due %v", stored.PaymentStatus, stored.DueAmount, tt.wantStatus, tt.wantDueAfter)
			}
			if stored.DueAmount != stored.GrandTotal-stored.PaidAmount {
				t.Errorf("due %v != grand %v - paid %v", stored.DueAmount, stored.GrandTotal, stored.PaidAmount)
			}
			if stored.Revision != int64(len(tt.prior)+1) {
				t.Errorf("Revision = %d, want %d", stored.Revision, len(tt.prior)+1)
			}
		})
	}
}

func TestReceiptService_CreateReceiptErrors(t *testing.T) {
	services, _ := setupServices(t)
	ctx := context.Background()
	bill := createBill(t, services.BillService, models.Units(100))

	if _, err := services.ReceiptService.CreateReceipt(ctx, nil); !errors.Is(err, ErrInvalidRequest) {
		t.Errorf("CreateReceipt(nil) error = %v", err)
	}

	req := pay(bill.BillNumber, models.Units(10))
	req.PaymentDate = "01/05/2024"
	if _, err := services.ReceiptService.CreateReceipt(ctx, req); !errors.Is(err, ErrInvalidRequest) {
		t.Errorf("CreateReceipt(bad date) error = %v, want invalid request", err)
	}

	req = pay(bill.BillNumber, models.Units(10))
	req.PaymentDate = ""
	if _, err := services.ReceiptService.CreateReceipt(ctx, req); !errors.Is(err, billing.ErrMissingPaymentDate) {
		t.Errorf("CreateReceipt(no date) error = %v, want missing payment date", err)
	}

	if _, err := services.ReceiptService.CreateReceipt(ctx, pay(999, models.Units(10))); !repositories.IsNotFound(err) {
		t.Errorf("CreateReceipt(unknown bill) error = %v, want not found", err)
	}
}

func TestReceiptService_Taxes(t *testing.T) {
	services, _ := setupServices(t)
	ctx := context.Background()
	bill := createBill(t, services.BillService, models.Units(1000))

	if _, err := services.TaxService.CreateTax(ctx, &TaxRequest{Name: "GST", Type: models.TaxTypePercentage, Value: models.Units(10)}); err != nil {
		t.Fatalf("CreateTax() error = %v", err)
	}

	req := pay(bill.BillNumber, models.Units(500))
	req.Tax = []TaxInput{
		{Name: "gst", Type: models.TaxTypeFlat, Value: models.Units(999)},
		{Name: "Packing", Type: models.TaxTypeFlat, Value: models.Units(20)},
	}
	receipt, err := services.ReceiptService.CreateReceipt(ctx, req)
	if err != nil {
		t.Fatalf("CreateReceipt() error = %v", err)
	}

	want := []models.AppliedTax{
		{Name: "GST", Type: models.TaxTypePercentage, Value: models.Units(10)},
		{Name: "Packing", Type: models.TaxTypeFlat, Value: models.Units(20)},
	}
	if len(receipt.Taxes) != 2 || receipt.Taxes[0] != want[0] || receipt.Taxes[1] != want[1] {
		t.Errorf("Taxes = %+v, want %+v", receipt.Taxes, want)
	}
	if receipt.TaxAmount != models.Units(70) {
		t.Errorf("TaxAmount = %v, want 70.00", receipt.TaxAmount)
	}

	// later edits leave the snapshot alone
	if _, err := services.TaxService.UpdateTax(ctx, "GST", &TaxRequest{Name: "GST", Type: models.TaxTypePercentage, Value: models.Units(18)}); err != nil {
		t.Fatalf("UpdateTax() error = %v", err)
	}
	got, _ := services.ReceiptService.GetReceipt(ctx, receipt.ReceiptNumber)
	if got.Taxes[0].Value != models.Units(10) {
		t.Errorf("snapshot value = %v, want 10.00", got.Taxes[0].Value)
	}

	details, _ := services.BillService.GetBill(ctx, bill.BillNumber)
	if details.Summary.GrandTotal != models.Units(1070) || details.Summary.DueAmount != models.Units(570) {
		t.Errorf("Summary = %+v", details.Summary)
	}

	req = pay(bill.BillNumber, models.Units(10))
	req.Tax = []TaxInput{{Name: "Broken", Type: "Compound", Value: models.Units(1)}}
	if _, err := services.ReceiptService.CreateReceipt(ctx, req); !errors.Is(err, billing.ErrInvalidTax) {
		t.Errorf("CreateReceipt(unknown tax type) error = %v, want invalid tax", err)
	}
}

func TestReceiptService_ConcurrentPaymentsNeverOverpay(t *testing.T) {
	lockers := map[string]locking.Locker{
		"keyed mutex": locking.NewKeyedMutex(),
		"no lock":     noLock{},
	}

	for name, locker := range lockers {
		t.Run(name, func(t *testing.T) {
			store := setupStore(t)
			container, err := NewServiceContainer(store, locker, DefaultServiceConfig(), testLogger())
			if err != nil {
				t.Fatalf("NewServiceContainer() error = %v", err)
			}
			ctx := context.Background()
			bill := createBill(t, container.BillService, models.Units(1000))

			var (
				wg       sync.WaitGroup
				accepted atomic.Int32
				rejected atomic.Int32
			)
			for i := 0; i < 10; i++ {
				wg.Add(1)
				go func() {
					defer wg.Done()
					_, err := container.ReceiptService.CreateReceipt(ctx, pay(bill.BillNumber, models.Units(200)))
					switch {
					case err == nil:
						accepted.Add(1)
					case errors.Is(err, billing.ErrBillAlreadyPaid):
						rejected.Add(1)
					default:
						t.Errorf("CreateReceipt() unexpected error = %v", err)
					}
				}()
			}
			wg.Wait()

			if accepted.Load() != 5 || rejected.Load() != 5 {
				t.Errorf("accepted %d rejected %d, want 5 and 5", accepted.Load(), rejected.Load())
			}
			details, err := container.BillService.GetBill(ctx, bill.BillNumber)
			if err != nil {
				t.Fatalf("GetBill() error = %v", err)
			}
			if details.Summary.TotalPaid != models.Units(1000) || details.Summary.PaymentStatus != models.PaymentStatusPaid {
				t.Errorf("Summary = %+v", details.Summary)
			}
		})
	}
}

func TestReceiptService_RetriesRevisionConflicts(t *testing.T) {
	base := setupStore(t)
	store := &conflictingStore{Store: base, conflicts: 2}
	container, err := NewServiceContainer(store, nil, DefaultServiceConfig(), testLogger())
	if err != nil {
		t.Fatalf("NewServiceContainer() error = %v", err)
	}
	ctx := context.Background()
	bill := createBill(t, container.BillService, models.Units(300))

	receipt, err := container.ReceiptService.CreateReceipt(ctx, pay(bill.BillNumber, models.Units(100)))
	if err != nil {
		t.Fatalf("CreateReceipt() error = %v", err)
	}
	if store.attempts != 3 {
		t.Errorf("attempts = %d, want 3", store.attempts)
	}

	count, _ := base.Receipts().Count(ctx, models.ReceiptFilter{BillNumber: bill.BillNumber})
	if count != 1 {
		t.Errorf("receipts stored = %d, want 1", count)
	}
	if receipt.ReceiptNumber != 1 {
		t.Errorf("ReceiptNumber = %d, want 1 after rolled back attempts", receipt.ReceiptNumber)
	}

	store.conflicts = 100
	if _, err := container.ReceiptService.CreateReceipt(ctx, pay(bill.BillNumber, models.Units(100))); !repositories.IsConcurrency(err) {
		t.Errorf("CreateReceipt() error = %v, want concurrency conflict once retries run out", err)
	}
}

func TestReceiptService_ListAndPrint(t *testing.T) {
	services, _ := setupServices(t)
	ctx := context.Background()
	bill := createBill(t, services.BillService, models.Units(1000))

	var numbers []int64
	for _, amount := range []models.Money{models.Units(100), models.Units(200), models.Units(300)} {
		r, err := services.ReceiptService.CreateReceipt(ctx, pay(bill.BillNumber, amount))
		if err != nil {
			t.Fatalf("CreateReceipt() error = %v", err)
		}
		numbers = append(numbers, r.ReceiptNumber)
	}

	page, err := services.ReceiptService.ListReceipts(ctx, nil)
	if err != nil {
		t.Fatalf("ListReceipts() error = %v", err)
	}
	if page.Total != 3 || len(page.Items) != 3 || page.Items[0].ReceiptNumber != numbers[2] {
		t.Errorf("ListReceipts() = %+v", page)
	}

	printable, err := services.ReceiptService.FormatReceiptForPrint(ctx, numbers[1])
	if err != nil {
		t.Fatalf("FormatReceiptForPrint() error = %v", err)
	}
	if printable.Shop.Name != "Stitch & Co" || printable.CustomerName != "Meera" {
		t.Errorf("header = %+v / %q", printable.Shop, printable.CustomerName)
	}
	if printable.BillSummary.TotalPaid != models.Units(300) || printable.BillSummary.DueAmount != models.Units(700) {
		t.Errorf("BillSummary = %+v, want paid 300.00 due 700.00", printable.BillSummary)
	}
	if printable.BillSummary.ReceiptCount != 2 {
		t.Errorf("ReceiptCount = %d, want 2", printable.BillSummary.ReceiptCount)
	}

	if _, err := services.ReceiptService.FormatReceiptForPrint(ctx, 42); !repositories.IsNotFound(err) {
		t.Errorf("FormatReceiptForPrint(42) error = %v, want not found", err)
	}
}

type noLock struct{}

func (noLock) Lock(context.Context, string) (locking.Unlock, error) {
	return func() {}, nil
}

// conflictingStore fails the first conflicts aggregate writes with a stale revision
type conflictingStore struct {
	*sqlite.Store
	mu        sync.Mutex
	conflicts int
	attempts  int
}

func (s *conflictingStore) Bills() repositories.BillRepository {
	return &conflictingBills{BillRepository: s.Store.Bills(), store: s}
}

type conflictingBills struct {
	repositories.BillRepository
	store *conflictingStore
}

func (b *conflictingBills) UpdateAggregate(ctx context.Context, bill *models.Bill, expectedRevision int64) error {
	b.store.mu.Lock()
	b.store.attempts++
	conflict := b.store.conflicts > 0
	if conflict {
		b.store.conflicts--
	}
	b.store.mu.Unlock()

	if conflict {
		return repositories.ConcurrencyError("bill", "test", expectedRevision)
	}
	return b.BillRepository.UpdateAggregate(ctx, bill, expectedRevision)
}

func TestReceiptService_LeavesListedReceiptsUntouched(t *testing.T) {
	base := setupStore(t)
	store := &spareCapacityStore{Store: base}
	container, err := NewServiceContainer(store, nil, DefaultServiceConfig(), testLogger())
	if err != nil {
		t.Fatalf("NewServiceContainer() error = %v", err)
	}
	ctx := context.Background()
	bill := createBill(t, container.BillService, models.Units(300))

	for _, amount := range []models.Money{models.Units(100), models.Units(50)} {
		if _, err := container.ReceiptService.CreateReceipt(ctx, pay(bill.BillNumber, amount)); err != nil {
			t.Fatalf("CreateReceipt() error = %v", err)
		}
		listed := store.listed[:cap(store.listed)]
		if spare := listed[len(store.listed)]; spare != nil {
			t.Errorf("spare slot of listed receipts = receipt %d, want untouched", spare.ReceiptNumber)
		}
	}
}

// spareCapacityStore hands out receipt lists with room to grow in place
type spareCapacityStore struct {
	*sqlite.Store
	listed []*models.Receipt
}

func (s *spareCapacityStore) Receipts() repositories.ReceiptRepository {
	return &spareCapacityReceipts{ReceiptRepository: s.Store.Receipts(), store: s}
}

type spareCapacityReceipts struct {
	repositories.ReceiptRepository
	store *spareCapacityStore
}

func (r *spareCapacityReceipts) ListByBill(ctx context.Context, billNumber int64) ([]*models.Receipt, error) {
	receipts, err := r.ReceiptRepository.ListByBill(ctx, billNumber)
	if err != nil {
		return nil, err
	}
	listed := make([]*models.Receipt, len(receipts), len(receipts)+4)
	copy(listed, receipts)
	r.store.listed = listed
	return listed, nil
}
