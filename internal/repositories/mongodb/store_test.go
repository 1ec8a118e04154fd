package mongodb

import (
	"context"
	"fmt"
	"testing"
	"time"

	"tailor-billing-api/internal/models"
	"tailor-billing-api/internal/repositories"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"
)

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	return logger
}

func toDoc(t testing.TB, v interface{}) bson.D {
	t.Helper()
	raw, err := bson.Marshal(v)
	if err != nil {
		t.Fatalf("bson.Marshal() error = %v", err)
	}
	var doc bson.D
	if err := bson.Unmarshal(raw, &doc); err != nil {
		t.Fatalf("bson.Unmarshal() error = %v", err)
	}
	return doc
}

func namespace(mt *mtest.T, collection string) string {
	return fmt.Sprintf("%s.%s", mt.DB.Name(), collection)
}

func counterResponse(name string, seq int64) bson.D {
	return mtest.CreateSuccessResponse(bson.E{Key: "value", Value: bson.D{
		{Key: "_id", Value: name},
		{Key: "seq", Value: seq},
	}})
}

func sampleBill() *models.Bill {
	return models.NewBill("Asha", []models.LineOrder{{Description: "Blouse", Quantity: 2, Amount: models.Units(900)}})
}

func TestBillRepository_Create(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("assigns the counter value", func(mt *mtest.T) {
		repo := NewBillRepository(mt.DB, quietLogger())
		mt.AddMockResponses(counterResponse(counterBillNumber, 7), mtest.CreateSuccessResponse())

		bill := sampleBill()
		if err := repo.Create(context.Background(), bill); err != nil {
			mt.Fatalf("Create() error = %v", err)
		}
		if bill.BillNumber != 7 {
			mt.Errorf("BillNumber = %d, want 7", bill.BillNumber)
		}
	})

	mt.Run("duplicate key", func(mt *mtest.T) {
		repo := NewBillRepository(mt.DB, quietLogger())
		mt.AddMockResponses(
			counterResponse(counterBillNumber, 8),
			mtest.CreateWriteErrorsResponse(mtest.WriteError{Index: 0, Code: 11000, Message: "duplicate key error"}),
		)

		bill := sampleBill()
		if err := repo.Create(context.Background(), bill); !repositories.IsDuplicate(err) {
			mt.Errorf("Create() error = %v, want duplicate", err)
		}
		if bill.BillNumber != 0 {
			mt.Errorf("BillNumber = %d, want reset to 0", bill.BillNumber)
		}
	})

	mt.Run("invalid bill is rejected before any write", func(mt *mtest.T) {
		repo := NewBillRepository(mt.DB, quietLogger())
		if err := repo.Create(context.Background(), models.NewBill("", nil)); !repositories.IsValidation(err) {
			mt.Errorf("Create() error = %v, want validation", err)
		}
	})
}

func TestBillRepository_GetByNumber(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("found", func(mt *mtest.T) {
		repo := NewBillRepository(mt.DB, quietLogger())
		stored := sampleBill()
		stored.BillNumber = 3
		mt.AddMockResponses(mtest.CreateCursorResponse(0, namespace(mt, CollectionBills), mtest.FirstBatch, toDoc(mt, stored)))

		got, err := repo.GetByNumber(context.Background(), 3)
		if err != nil {
			mt.Fatalf("GetByNumber() error = %v", err)
		}
		if got.ID != stored.ID || got.TotalAmount != models.Units(900) || len(got.Orders) != 1 {
			mt.Errorf("GetByNumber() = %+v", got)
		}
	})

	mt.Run("not found", func(mt *mtest.T) {
		repo := NewBillRepository(mt.DB, quietLogger())
		mt.AddMockResponses(mtest.CreateCursorResponse(0, namespace(mt, CollectionBills), mtest.FirstBatch))

		if _, err := repo.GetByNumber(context.Background(), 3); !repositories.IsNotFound(err) {
			mt.Errorf("GetByNumber() error = %v, want not found", err)
		}
	})
}

func TestBillRepository_UpdateAggregate(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("bumps revision", func(mt *mtest.T) {
		repo := NewBillRepository(mt.DB, quietLogger())
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 1}, bson.E{Key: "nModified", Value: 1}))

		bill := sampleBill()
		bill.BillNumber = 1
		bill.Revision = 4
		if err := repo.UpdateAggregate(context.Background(), bill, 4); err != nil {
			mt.Fatalf("UpdateAggregate() error = %v", err)
		}
		if bill.Revision != 5 {
			mt.Errorf("Revision = %d, want 5", bill.Revision)
		}
	})

	mt.Run("stale revision", func(mt *mtest.T) {
		repo := NewBillRepository(mt.DB, quietLogger())
		bill := sampleBill()
		bill.BillNumber = 1
		mt.AddMockResponses(
			mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 0}, bson.E{Key: "nModified", Value: 0}),
			mtest.CreateCursorResponse(0, namespace(mt, CollectionBills), mtest.FirstBatch, toDoc(mt, bill)),
		)

		if err := repo.UpdateAggregate(context.Background(), bill, 0); !repositories.IsConcurrency(err) {
			mt.Errorf("UpdateAggregate() error = %v, want concurrency conflict", err)
		}
	})

	mt.Run("missing bill", func(mt *mtest.T) {
		repo := NewBillRepository(mt.DB, quietLogger())
		bill := sampleBill()
		bill.BillNumber = 9
		mt.AddMockResponses(
			mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 0}, bson.E{Key: "nModified", Value: 0}),
			mtest.CreateCursorResponse(0, namespace(mt, CollectionBills), mtest.FirstBatch),
		)

		if err := repo.UpdateAggregate(context.Background(), bill, 0); !repositories.IsNotFound(err) {
			mt.Errorf("UpdateAggregate() error = %v, want not found", err)
		}
	})
}

func TestBillRepository_List(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("decodes all documents", func(mt *mtest.T) {
		repo := NewBillRepository(mt.DB, quietLogger())
		a, b := sampleBill(), sampleBill()
		a.BillNumber, b.BillNumber = 2, 1
		mt.AddMockResponses(mtest.CreateCursorResponse(0, namespace(mt, CollectionBills), mtest.FirstBatch, toDoc(mt, a), toDoc(mt, b)))

		bills, err := repo.List(context.Background(), models.BillFilter{CustomerName: "as(h"}, 10, 0)
		if err != nil {
			mt.Fatalf("List() error = %v", err)
		}
		if len(bills) != 2 || bills[0].BillNumber != 2 {
			mt.Errorf("List() = %+v", bills)
		}
	})

	mt.Run("propagates find errors", func(mt *mtest.T) {
		repo := NewBillRepository(mt.DB, quietLogger())
		mt.AddMockResponses(mtest.CreateCommandErrorResponse(mtest.CommandError{Code: 123, Message: "failure", Name: "CommandFailed"}))

		if _, err := repo.List(context.Background(), models.BillFilter{}, 10, 0); err == nil {
			mt.Error("List() expected error")
		}
	})
}

func TestReceiptRepository_Create(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	newReceipt := func() *models.Receipt {
		r := models.NewReceipt(models.BillRef{BillNumber: 1, Name: "Asha"}, models.Units(300), 0)
		r.PaymentMethod = models.PaymentMethodUPI
		r.PaymentDate = time.Now().UTC()
		r.PaymentType = models.PaymentTypeAdvance
		return r
	}

	mt.Run("bill exists", func(mt *mtest.T) {
		repo := NewReceiptRepository(mt.DB, quietLogger())
		mt.AddMockResponses(
			mtest.CreateCursorResponse(0, namespace(mt, CollectionBills), mtest.FirstBatch, bson.D{{Key: "_id", Value: "bill-1"}}),
			counterResponse(counterReceiptNumber, 12),
			mtest.CreateSuccessResponse(),
		)

		receipt := newReceipt()
		if err := repo.Create(context.Background(), receipt); err != nil {
			mt.Fatalf("Create() error = %v", err)
		}
		if receipt.ReceiptNumber != 12 {
			mt.Errorf("ReceiptNumber = %d, want 12", receipt.ReceiptNumber)
		}
		if receipt.Taxes == nil {
			mt.Error("Taxes should be stored as an empty list")
		}
	})

	mt.Run("unknown bill", func(mt *mtest.T) {
		repo := NewReceiptRepository(mt.DB, quietLogger())
		mt.AddMockResponses(mtest.CreateCursorResponse(0, namespace(mt, CollectionBills), mtest.FirstBatch))

		if err := repo.Create(context.Background(), newReceipt()); !repositories.IsNotFound(err) {
			mt.Errorf("Create() error = %v, want bill not found", err)
		}
	})
}

func TestReceiptRepository_ListByBill(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("empty result is an empty slice", func(mt *mtest.T) {
		repo := NewReceiptRepository(mt.DB, quietLogger())
		mt.AddMockResponses(mtest.CreateCursorResponse(0, namespace(mt, CollectionReceipts), mtest.FirstBatch))

		receipts, err := repo.ListByBill(context.Background(), 1)
		if err != nil {
			mt.Fatalf("ListByBill() error = %v", err)
		}
		if receipts == nil || len(receipts) != 0 {
			mt.Errorf("ListByBill() = %#v, want empty slice", receipts)
		}
	})

	mt.Run("decodes applied taxes", func(mt *mtest.T) {
		repo := NewReceiptRepository(mt.DB, quietLogger())
		r := models.NewReceipt(models.BillRef{BillNumber: 1, Name: "Asha"}, models.Units(300), models.Units(10))
		r.ReceiptNumber = 4
		r.Taxes = []models.AppliedTax{{Name: "GST", Type: models.TaxTypePercentage, Value: models.Units(5)}}
		mt.AddMockResponses(mtest.CreateCursorResponse(0, namespace(mt, CollectionReceipts), mtest.FirstBatch, toDoc(mt, r)))

		receipts, err := repo.ListByBill(context.Background(), 1)
		if err != nil {
			mt.Fatalf("ListByBill() error = %v", err)
		}
		if len(receipts) != 1 || receipts[0].Discount != models.Units(10) || receipts[0].Taxes[0] != r.Taxes[0] {
			mt.Errorf("ListByBill() = %+v", receipts)
		}
	})
}

func TestTaxRepository(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("duplicate name", func(mt *mtest.T) {
		repo := NewTaxRepository(mt.DB, quietLogger())
		mt.AddMockResponses(mtest.CreateWriteErrorsResponse(mtest.WriteError{Index: 0, Code: 11000, Message: "duplicate key error"}))

		err := repo.Create(context.Background(), models.NewTaxDefinition("GST", models.TaxTypePercentage, models.Units(5)))
		if !repositories.IsDuplicate(err) {
			mt.Errorf("Create() error = %v, want duplicate", err)
		}
	})

	mt.Run("get by name", func(mt *mtest.T) {
		repo := NewTaxRepository(mt.DB, quietLogger())
		tax := models.NewTaxDefinition("GST", models.TaxTypePercentage, models.Units(5))
		mt.AddMockResponses(mtest.CreateCursorResponse(0, namespace(mt, CollectionTaxes), mtest.FirstBatch, toDoc(mt, tax)))

		got, err := repo.GetByName(context.Background(), "gst")
		if err != nil {
			mt.Fatalf("GetByName() error = %v", err)
		}
		if got.Name != "GST" || got.Type != models.TaxTypePercentage || got.Value != models.Units(5) {
			mt.Errorf("GetByName() = %+v", got)
		}
	})

	mt.Run("delete missing", func(mt *mtest.T) {
		repo := NewTaxRepository(mt.DB, quietLogger())
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 0}))

		if err := repo.Delete(context.Background(), "VAT"); !repositories.IsNotFound(err) {
			mt.Errorf("Delete() error = %v, want not found", err)
		}
	})
}
