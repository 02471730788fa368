package workflow_test

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"regexp"
	"strings"
	"sync"
	"testing"
	"time"

	"bitbucket.org/mmdatafocus/exhibition_backend/config"
	"bitbucket.org/mmdatafocus/exhibition_backend/models"
	"bitbucket.org/mmdatafocus/exhibition_backend/utils"
	"bitbucket.org/mmdatafocus/exhibition_backend/workflow"
	"github.com/shopspring/decimal"
)

// setupIntegration boots MySQL + redis in docker, wires env, connects the
// shared config clients and migrates a fresh schema.
func setupIntegration(t *testing.T) context.Context {
	t.Helper()
	if strings.TrimSpace(os.Getenv("INTEGRATION_TESTS")) == "" {
		t.Skip("set INTEGRATION_TESTS=1 to run integration tests (requires docker)")
	}

	redisName, redisPort := startRedisContainer(t)
	t.Cleanup(func() { _ = dockerRmForce(redisName) })

	mysqlName, mysqlPort := startMySQLContainer(t)
	t.Cleanup(func() { _ = dockerRmForce(mysqlName) })

	t.Setenv("REDIS_ADDRESS", fmt.Sprintf("127.0.0.1:%s", redisPort))
	t.Setenv("DB_USER", "root")
	t.Setenv("DB_PASSWORD", "testpw")
	t.Setenv("DB_HOST", "127.0.0.1")
	t.Setenv("DB_PORT", mysqlPort)
	t.Setenv("DB_NAME", "exhibition_test")

	config.ConnectDatabaseWithRetry()
	config.ConnectRedisWithRetry()
	if err := models.MigrateTable(); err != nil {
		t.Fatalf("MigrateTable: %v", err)
	}
	return context.Background()
}

func seedUsers(t *testing.T, ctx context.Context) (*models.User, *models.User) {
	t.Helper()
	owner, err := models.CreateOwner(ctx, &models.NewUser{
		Username: "owner",
		Email:    "owner@test.local",
		Password: "ownerpass1",
	})
	if err != nil {
		t.Fatalf("CreateOwner: %v", err)
	}
	employee, err := models.CreateEmployee(ctx, &models.NewUser{
		Username: "cashier",
		Email:    "cashier@test.local",
		Password: "cashierpass1",
	})
	if err != nil {
		t.Fatalf("CreateEmployee: %v", err)
	}
	return owner, employee
}

func seedProduct(t *testing.T, ctx context.Context, name string, price int64, stock int) *models.Product {
	t.Helper()
	product, err := models.CreateProduct(ctx, &models.NewProduct{
		Name:          name,
		Price:         decimal.NewFromInt(price),
		StockQuantity: stock,
	}, "")
	if err != nil {
		t.Fatalf("CreateProduct(%s): %v", name, err)
	}
	return product
}

func TestCreateInvoice_DecrementsStockAtomically(t *testing.T) {
	ctx := setupIntegration(t)
	_, employee := seedUsers(t, ctx)
	logger := config.GetLogger()

	soap := seedProduct(t, ctx, "Soap", 1500, 10)
	brush := seedProduct(t, ctx, "Brush", 700, 3)

	invoiceId, err := workflow.CreateInvoice(ctx, logger, &models.NewInvoice{
		CustomerName: "Daw Mya",
		Items: []models.NewInvoiceItem{
			{ProductId: soap.ID, Quantity: 4},
			{ProductId: brush.ID, Quantity: 2},
		},
	}, employee.ID)
	if err != nil {
		t.Fatalf("CreateInvoice: %v", err)
	}

	invoice, err := models.GetInvoiceById(ctx, invoiceId)
	if err != nil {
		t.Fatalf("GetInvoiceById: %v", err)
	}
	wantTotal := decimal.NewFromInt(1500*4 + 700*2)
	if !invoice.TotalAmount.Equal(wantTotal) {
		t.Fatalf("total = %s, want %s", invoice.TotalAmount, wantTotal)
	}
	if len(invoice.Items) != 2 {
		t.Fatalf("items = %d, want 2", len(invoice.Items))
	}

	soapAfter, _ := models.GetProductById(ctx, soap.ID)
	brushAfter, _ := models.GetProductById(ctx, brush.ID)
	if soapAfter.StockQuantity != 6 || brushAfter.StockQuantity != 1 {
		t.Fatalf("stock after = (%d, %d), want (6, 1)", soapAfter.StockQuantity, brushAfter.StockQuantity)
	}

	// Second attempt asks for more brushes than remain; the soap line must
	// roll back with it.
	_, err = workflow.CreateInvoice(ctx, logger, &models.NewInvoice{
		Items: []models.NewInvoiceItem{
			{ProductId: soap.ID, Quantity: 1},
			{ProductId: brush.ID, Quantity: 2},
		},
	}, employee.ID)
	if !utils.IsKind(err, utils.ErrorKindConflict) {
		t.Fatalf("expected stock conflict, got %v", err)
	}

	soapAfter, _ = models.GetProductById(ctx, soap.ID)
	brushAfter, _ = models.GetProductById(ctx, brush.ID)
	if soapAfter.StockQuantity != 6 || brushAfter.StockQuantity != 1 {
		t.Fatalf("stock mutated by failed invoice: (%d, %d)", soapAfter.StockQuantity, brushAfter.StockQuantity)
	}

	db := config.GetDB()
	var invoiceCount int64
	if err := db.WithContext(ctx).Model(&models.Invoice{}).Count(&invoiceCount).Error; err != nil {
		t.Fatalf("count invoices: %v", err)
	}
	if invoiceCount != 1 {
		t.Fatalf("invoice count = %d, want 1 (failed create must not persist)", invoiceCount)
	}
}

func TestCreateInvoice_RejectsBadInput(t *testing.T) {
	ctx := setupIntegration(t)
	_, employee := seedUsers(t, ctx)
	logger := config.GetLogger()

	if _, err := workflow.CreateInvoice(ctx, logger, &models.NewInvoice{}, employee.ID); !utils.IsKind(err, utils.ErrorKindValidation) {
		t.Fatalf("empty items: expected validation error, got %v", err)
	}

	soap := seedProduct(t, ctx, "Soap", 1500, 10)
	if _, err := workflow.CreateInvoice(ctx, logger, &models.NewInvoice{
		Items: []models.NewInvoiceItem{{ProductId: soap.ID, Quantity: 0}},
	}, employee.ID); !utils.IsKind(err, utils.ErrorKindValidation) {
		t.Fatalf("zero quantity: expected validation error, got %v", err)
	}

	if _, err := workflow.CreateInvoice(ctx, logger, &models.NewInvoice{
		Items: []models.NewInvoiceItem{{ProductId: 99999, Quantity: 1}},
	}, employee.ID); !utils.IsKind(err, utils.ErrorKindNotFound) {
		t.Fatalf("missing product: expected not found, got %v", err)
	}

	// Soft-deleted products cannot be sold.
	if err := models.DeleteProduct(ctx, soap.ID); err != nil {
		t.Fatalf("DeleteProduct: %v", err)
	}
	if _, err := workflow.CreateInvoice(ctx, logger, &models.NewInvoice{
		Items: []models.NewInvoiceItem{{ProductId: soap.ID, Quantity: 1}},
	}, employee.ID); !utils.IsKind(err, utils.ErrorKindNotFound) {
		t.Fatalf("inactive product: expected not found, got %v", err)
	}
}

func TestCreateInvoice_ConcurrentStockGuard(t *testing.T) {
	ctx := setupIntegration(t)
	_, employee := seedUsers(t, ctx)
	logger := config.GetLogger()

	lamp := seedProduct(t, ctx, "Lamp", 9000, 5)

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = workflow.CreateInvoice(ctx, logger, &models.NewInvoice{
				Items: []models.NewInvoiceItem{{ProductId: lamp.ID, Quantity: 4}},
			}, employee.ID)
		}(i)
	}
	wg.Wait()

	successes := 0
	for _, err := range errs {
		if err == nil {
			successes++
		} else if !utils.IsKind(err, utils.ErrorKindConflict) {
			t.Fatalf("unexpected error kind: %v", err)
		}
	}
	if successes != 1 {
		t.Fatalf("successes = %d, want exactly 1", successes)
	}

	after, _ := models.GetProductById(ctx, lamp.ID)
	if after.StockQuantity != 1 {
		t.Fatalf("stock after concurrent creates = %d, want 1", after.StockQuantity)
	}
}

func TestConfirmInvoice_IdempotencyGuardAndNotification(t *testing.T) {
	ctx := setupIntegration(t)
	owner, employee := seedUsers(t, ctx)
	logger := config.GetLogger()

	soap := seedProduct(t, ctx, "Soap", 1500, 10)
	invoiceId, err := workflow.CreateInvoice(ctx, logger, &models.NewInvoice{
		CustomerName: "U Ba",
		Items:        []models.NewInvoiceItem{{ProductId: soap.ID, Quantity: 1}},
	}, employee.ID)
	if err != nil {
		t.Fatalf("CreateInvoice: %v", err)
	}

	if err := workflow.ConfirmInvoice(ctx, logger, invoiceId); err != nil {
		t.Fatalf("ConfirmInvoice: %v", err)
	}

	notifications, err := models.ListNotifications(ctx, owner.ID, false)
	if err != nil {
		t.Fatalf("ListNotifications: %v", err)
	}
	if len(notifications) != 1 {
		t.Fatalf("notifications = %d, want 1", len(notifications))
	}
	if notifications[0].InvoiceId == nil || *notifications[0].InvoiceId != invoiceId {
		t.Fatalf("notification invoice ref = %v, want %d", notifications[0].InvoiceId, invoiceId)
	}
	if !strings.Contains(notifications[0].Message, "cashier") {
		t.Fatalf("notification message %q missing creator name", notifications[0].Message)
	}

	// Second confirm must fail loudly and must not re-notify.
	err = workflow.ConfirmInvoice(ctx, logger, invoiceId)
	if !utils.IsKind(err, utils.ErrorKindConflict) {
		t.Fatalf("re-confirm: expected conflict, got %v", err)
	}
	notifications, _ = models.ListNotifications(ctx, owner.ID, false)
	if len(notifications) != 1 {
		t.Fatalf("notifications after re-confirm = %d, want 1", len(notifications))
	}

	if err := workflow.ConfirmInvoice(ctx, logger, 99999); !utils.IsKind(err, utils.ErrorKindNotFound) {
		t.Fatalf("missing invoice: expected not found, got %v", err)
	}
}

func TestOwnerSoftDelete_HidesFromOwnerOnly(t *testing.T) {
	ctx := setupIntegration(t)
	owner, employee := seedUsers(t, ctx)
	logger := config.GetLogger()

	soap := seedProduct(t, ctx, "Soap", 1500, 10)
	invoiceId, err := workflow.CreateInvoice(ctx, logger, &models.NewInvoice{
		Items: []models.NewInvoiceItem{{ProductId: soap.ID, Quantity: 2}},
	}, employee.ID)
	if err != nil {
		t.Fatalf("CreateInvoice: %v", err)
	}

	if err := models.DeleteInvoiceByOwner(ctx, invoiceId); err != nil {
		t.Fatalf("DeleteInvoiceByOwner: %v", err)
	}
	// Idempotent: the second delete succeeds and keeps the original stamp.
	before, _ := models.GetInvoiceById(ctx, invoiceId)
	if err := models.DeleteInvoiceByOwner(ctx, invoiceId); err != nil {
		t.Fatalf("repeat DeleteInvoiceByOwner: %v", err)
	}
	after, _ := models.GetInvoiceById(ctx, invoiceId)
	if !before.DeletedByOwnerAt.Equal(*after.DeletedByOwnerAt) {
		t.Fatalf("repeat delete moved DeletedByOwnerAt: %v -> %v", before.DeletedByOwnerAt, after.DeletedByOwnerAt)
	}

	// Deletion never restocks.
	soapAfter, _ := models.GetProductById(ctx, soap.ID)
	if soapAfter.StockQuantity != 8 {
		t.Fatalf("stock after delete = %d, want 8 (no restock)", soapAfter.StockQuantity)
	}

	// Owner view: gone from both list and single lookup.
	ownerList, err := models.ListInvoices(ctx, models.UserRoleOwner, owner.ID, models.InvoiceFilter{})
	if err != nil {
		t.Fatalf("owner ListInvoices: %v", err)
	}
	for _, v := range ownerList {
		if v.ID == invoiceId {
			t.Fatalf("deleted invoice still visible to owner")
		}
	}
	if _, err := models.GetInvoice(ctx, models.UserRoleOwner, owner.ID, invoiceId); !utils.IsKind(err, utils.ErrorKindNotFound) {
		t.Fatalf("owner GetInvoice on deleted: expected not found, got %v", err)
	}

	// Creator view: still there (created moments ago, inside the day window).
	empList, err := models.ListInvoices(ctx, models.UserRoleEmployee, employee.ID, models.InvoiceFilter{})
	if err != nil {
		t.Fatalf("employee ListInvoices: %v", err)
	}
	found := false
	for _, v := range empList {
		if v.ID == invoiceId {
			found = true
		}
	}
	if !found {
		t.Fatalf("creator lost sight of their own invoice after owner delete")
	}
	if _, err := models.GetInvoice(ctx, models.UserRoleEmployee, employee.ID, invoiceId); err != nil {
		t.Fatalf("employee GetInvoice on owner-deleted invoice: %v", err)
	}

	// Another employee may not read it at all.
	other, err := models.CreateEmployee(ctx, &models.NewUser{
		Username: "cashier2",
		Email:    "cashier2@test.local",
		Password: "cashierpass2",
	})
	if err != nil {
		t.Fatalf("CreateEmployee(other): %v", err)
	}
	if _, err := models.GetInvoice(ctx, models.UserRoleEmployee, other.ID, invoiceId); !utils.IsKind(err, utils.ErrorKindForbidden) {
		t.Fatalf("other employee: expected forbidden, got %v", err)
	}
}

func TestPriceSnapshot_SurvivesCatalogEdits(t *testing.T) {
	ctx := setupIntegration(t)
	_, employee := seedUsers(t, ctx)
	logger := config.GetLogger()

	soap := seedProduct(t, ctx, "Soap", 10, 50)

	firstId, err := workflow.CreateInvoice(ctx, logger, &models.NewInvoice{
		Items: []models.NewInvoiceItem{{ProductId: soap.ID, Quantity: 1}},
	}, employee.ID)
	if err != nil {
		t.Fatalf("CreateInvoice(first): %v", err)
	}

	if _, err := models.EditProduct(ctx, soap.ID, &models.UpdateProduct{
		Name:          "Soap",
		Price:         decimal.NewFromInt(20),
		StockQuantity: 49,
	}, ""); err != nil {
		t.Fatalf("EditProduct: %v", err)
	}

	secondId, err := workflow.CreateInvoice(ctx, logger, &models.NewInvoice{
		Items: []models.NewInvoiceItem{{ProductId: soap.ID, Quantity: 1}},
	}, employee.ID)
	if err != nil {
		t.Fatalf("CreateInvoice(second): %v", err)
	}

	first, _ := models.GetInvoiceById(ctx, firstId)
	second, _ := models.GetInvoiceById(ctx, secondId)
	if !first.Items[0].UnitPrice.Equal(decimal.NewFromInt(10)) {
		t.Fatalf("first invoice unit price = %s, want 10", first.Items[0].UnitPrice)
	}
	if !second.Items[0].UnitPrice.Equal(decimal.NewFromInt(20)) {
		t.Fatalf("second invoice unit price = %s, want 20", second.Items[0].UnitPrice)
	}
}

func TestEmployeeDayWindow_PartitionsListButNotGet(t *testing.T) {
	ctx := setupIntegration(t)
	owner, employee := seedUsers(t, ctx)
	logger := config.GetLogger()

	soap := seedProduct(t, ctx, "Soap", 1500, 10)

	oldId, err := workflow.CreateInvoice(ctx, logger, &models.NewInvoice{
		Items: []models.NewInvoiceItem{{ProductId: soap.ID, Quantity: 1}},
	}, employee.ID)
	if err != nil {
		t.Fatalf("CreateInvoice(old): %v", err)
	}
	todayId, err := workflow.CreateInvoice(ctx, logger, &models.NewInvoice{
		Items: []models.NewInvoiceItem{{ProductId: soap.ID, Quantity: 1}},
	}, employee.ID)
	if err != nil {
		t.Fatalf("CreateInvoice(today): %v", err)
	}

	// Backdate the first invoice two days so it falls outside the current
	// store day and the real scope SQL has to exclude it.
	db := config.GetDB()
	backdated := time.Now().UTC().Add(-48 * time.Hour)
	if err := db.WithContext(ctx).Model(&models.Invoice{}).
		Where("id = ?", oldId).
		Update("created_at", backdated).Error; err != nil {
		t.Fatalf("backdate invoice: %v", err)
	}

	empList, err := models.ListInvoices(ctx, models.UserRoleEmployee, employee.ID, models.InvoiceFilter{})
	if err != nil {
		t.Fatalf("employee ListInvoices: %v", err)
	}
	sawOld, sawToday := false, false
	for _, v := range empList {
		switch v.ID {
		case oldId:
			sawOld = true
		case todayId:
			sawToday = true
		}
	}
	if sawOld {
		t.Fatalf("two-day-old invoice leaked into the employee's list")
	}
	if !sawToday {
		t.Fatalf("today's invoice missing from the employee's list")
	}

	// Direct lookup by id is not day-restricted for the creator.
	if _, err := models.GetInvoice(ctx, models.UserRoleEmployee, employee.ID, oldId); err != nil {
		t.Fatalf("employee GetInvoice on backdated invoice: %v", err)
	}

	// The owner's list carries no day window at all.
	ownerList, err := models.ListInvoices(ctx, models.UserRoleOwner, owner.ID, models.InvoiceFilter{})
	if err != nil {
		t.Fatalf("owner ListInvoices: %v", err)
	}
	sawOld = false
	for _, v := range ownerList {
		if v.ID == oldId {
			sawOld = true
		}
	}
	if !sawOld {
		t.Fatalf("owner list lost the backdated invoice")
	}
}

func startRedisContainer(t *testing.T) (containerName, hostPort string) {
	t.Helper()
	name := fmt.Sprintf("exhibition-test-redis-%d", time.Now().UnixNano())
	out, err := dockerRun(
		"run", "-d", "--name", name,
		"-p", "127.0.0.1:0:6379",
		"redis:7-alpine",
	)
	if err != nil {
		t.Fatalf("start redis container: %v\n%s", err, out)
	}
	port, err := dockerHostPort(name, "6379/tcp")
	if err != nil {
		t.Fatalf("redis docker port: %v", err)
	}
	deadline := time.Now().Add(60 * time.Second)
	for time.Now().Before(deadline) {
		_, err := dockerRun("exec", name, "redis-cli", "ping")
		if err == nil {
			return name, port
		}
		time.Sleep(250 * time.Millisecond)
	}
	t.Fatalf("redis did not become ready")
	return "", ""
}

func startMySQLContainer(t *testing.T) (containerName, hostPort string) {
	t.Helper()
	name := fmt.Sprintf("exhibition-test-mysql-%d", time.Now().UnixNano())
	out, err := dockerRun(
		"run", "-d", "--name", name,
		"-e", "MYSQL_ROOT_PASSWORD=testpw",
		"-e", "MYSQL_DATABASE=exhibition_test",
		"-p", "127.0.0.1:0:3306",
		"mysql:8.0",
		"--default-authentication-plugin=mysql_native_password",
	)
	if err != nil {
		t.Fatalf("start mysql container: %v\n%s", err, out)
	}
	port, err := dockerHostPort(name, "3306/tcp")
	if err != nil {
		t.Fatalf("mysql docker port: %v", err)
	}
	deadline := time.Now().Add(120 * time.Second)
	for time.Now().Before(deadline) {
		_, err := dockerRun("exec", name, "mysqladmin", "ping", "-h", "127.0.0.1", "-ptestpw", "--silent")
		if err == nil {
			return name, port
		}
		time.Sleep(500 * time.Millisecond)
	}
	t.Fatalf("mysql did not become ready")
	return "", ""
}

func dockerHostPort(container, portProto string) (string, error) {
	out, err := dockerRun("port", container, portProto)
	if err != nil {
		return "", fmt.Errorf("docker port: %w: %s", err, out)
	}
	// Example: "127.0.0.1:49154\n"
	re := regexp.MustCompile(`:(\d+)`)
	m := re.FindStringSubmatch(out)
	if len(m) != 2 {
		return "", fmt.Errorf("unexpected docker port output: %q", out)
	}
	return m[1], nil
}

func dockerRmForce(container string) error {
	if strings.TrimSpace(container) == "" {
		return nil
	}
	_, err := dockerRun("rm", "-f", container)
	return err
}

func dockerRun(args ...string) (string, error) {
	cmd := exec.Command("docker", args...)
	b, err := cmd.CombinedOutput()
	return string(b), err
}
