package repository

import (
	"testing"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"overviewrepo/pkg/filter"
	"overviewrepo/pkg/mapper"
)

// customer is a mutable pointer entity with a generated key.
type customer struct {
	ID       int32
	Email    string
	Name     string
	Nickname *string
}

type customerFilter struct {
	Email *string
	IDs   []int32
}

// supplyPoint is an immutable value entity keyed by a client generated code.
type supplyPoint struct {
	Code       uuid.UUID
	CustomerID int32
	Amount     decimal.Decimal
	Active     bool
}

type supplyPointFilter struct {
	CustomerIDs []int32
	Active      *bool
}

type customerPoints struct {
	Customer *customer
	Points   []supplyPoint
}

type pointCustomer struct {
	Point    supplyPoint
	Customer *customer
}

var (
	customerID = mapper.Column("id",
		func(c *customer) int32 { return c.ID },
		func(c *customer, v int32) *customer { c.ID = v; return c }).AsPrimary()
	customerEmail = mapper.Column("email",
		func(c *customer) string { return c.Email },
		func(c *customer, v string) *customer { c.Email = v; return c })
	customerName = mapper.Column("name",
		func(c *customer) string { return c.Name },
		func(c *customer, v string) *customer { c.Name = v; return c })
	customerNickname = mapper.Column("nickname",
		func(c *customer) *string { return c.Nickname },
		func(c *customer, v *string) *customer { c.Nickname = v; return c })

	pointCode = mapper.Column("code",
		func(p supplyPoint) uuid.UUID { return p.Code },
		func(p supplyPoint, v uuid.UUID) supplyPoint { p.Code = v; return p }).AsPrimary()
	pointCustomerID = mapper.Column("customer_id",
		func(p supplyPoint) int32 { return p.CustomerID },
		func(p supplyPoint, v int32) supplyPoint { p.CustomerID = v; return p })
	pointAmount = mapper.Column("amount",
		func(p supplyPoint) decimal.Decimal { return p.Amount },
		func(p supplyPoint, v decimal.Decimal) supplyPoint { p.Amount = v; return p })
	pointActive = mapper.Column("active",
		func(p supplyPoint) bool { return p.Active },
		func(p supplyPoint, v bool) supplyPoint { p.Active = v; return p })
)

var customerMapper = mapper.MustEntityMapper("customer",
	func() *customer { return &customer{} },
	func(f customerFilter) []filter.Condition {
		var conditions []filter.Condition
		if f.Email != nil {
			conditions = append(conditions, customerEmail.Eq(*f.Email))
		}
		if f.IDs != nil {
			conditions = append(conditions, customerID.In(f.IDs...))
		}
		return conditions
	},
	customerID, customerEmail, customerName, customerNickname,
)

var supplyPointMapper = mapper.MustEntityMapper("supply_point",
	func() supplyPoint { return supplyPoint{} },
	func(f supplyPointFilter) []filter.Condition {
		var conditions []filter.Condition
		if f.CustomerIDs != nil {
			conditions = append(conditions, pointCustomerID.In(f.CustomerIDs...))
		}
		if f.Active != nil {
			conditions = append(conditions, pointActive.Eq(*f.Active))
		}
		return conditions
	},
	pointCode, pointCustomerID, pointAmount, pointActive,
)

func customerPointsMapper() *mapper.JoinEntityMapper[*customer, customerFilter, supplyPoint, supplyPointFilter, customerPoints, customerFilter, int32] {
	return &mapper.JoinEntityMapper[*customer, customerFilter, supplyPoint, supplyPointFilter, customerPoints, customerFilter, int32]{
		First:           customerMapper,
		Second:          supplyPointMapper,
		On:              mapper.JoinOn[*customer, supplyPoint, int32]{First: customerID, Second: pointCustomerID},
		DecomposeFilter: mapper.FilterToIdenticalAnd[customerFilter, supplyPointFilter](nil),
		Compose: func(c *customer, points []supplyPoint) customerPoints {
			return customerPoints{Customer: c, Points: points}
		},
		Cardinality: mapper.Many,
	}
}

func pointCustomerMapper() *mapper.JoinEntityMapper[supplyPoint, supplyPointFilter, *customer, customerFilter, pointCustomer, supplyPointFilter, int32] {
	return &mapper.JoinEntityMapper[supplyPoint, supplyPointFilter, *customer, customerFilter, pointCustomer, supplyPointFilter, int32]{
		First:           supplyPointMapper,
		Second:          customerMapper,
		On:              mapper.JoinOn[supplyPoint, *customer, int32]{First: pointCustomerID, Second: customerID},
		DecomposeFilter: mapper.FilterToIdenticalAnd[supplyPointFilter, customerFilter](nil),
		Compose: func(p supplyPoint, customers []*customer) pointCustomer {
			pc := pointCustomer{Point: p}
			if len(customers) > 0 {
				pc.Customer = customers[0]
			}
			return pc
		},
		Cardinality: mapper.One,
	}
}

// folder and document are related through a nullable folder reference.
type folder struct {
	ID   int64
	Name string
}

type document struct {
	ID       int64
	FolderID *int64
	Title    string
}

type folderDocuments struct {
	Folder    *folder
	Documents []*document
}

var (
	folderID = mapper.Column("id",
		func(f *folder) int64 { return f.ID },
		func(f *folder, v int64) *folder { f.ID = v; return f }).AsPrimary()
	folderRef = mapper.Column("id",
		func(f *folder) *int64 { return &f.ID },
		func(f *folder, v *int64) *folder {
			if v != nil {
				f.ID = *v
			}
			return f
		})
	documentFolderID = mapper.Column("folder_id",
		func(d *document) *int64 { return d.FolderID },
		func(d *document, v *int64) *document { d.FolderID = v; return d })
)

var folderMapper = mapper.MustEntityMapper[*folder, struct{}]("folder",
	func() *folder { return &folder{} },
	nil,
	folderID,
	mapper.Column("name", func(f *folder) string { return f.Name }, func(f *folder, v string) *folder { f.Name = v; return f }),
)

var documentMapper = mapper.MustEntityMapper[*document, struct{}]("document",
	func() *document { return &document{} },
	nil,
	mapper.Column("id", func(d *document) int64 { return d.ID }, func(d *document, v int64) *document { d.ID = v; return d }).AsPrimary(),
	documentFolderID,
	mapper.Column("title", func(d *document) string { return d.Title }, func(d *document, v string) *document { d.Title = v; return d }),
)

func folderDocumentsMapper() *mapper.JoinEntityMapper[*folder, struct{}, *document, struct{}, folderDocuments, struct{}, *int64] {
	return &mapper.JoinEntityMapper[*folder, struct{}, *document, struct{}, folderDocuments, struct{}, *int64]{
		First:           folderMapper,
		Second:          documentMapper,
		On:              mapper.JoinOn[*folder, *document, *int64]{First: folderRef, Second: documentFolderID},
		DecomposeFilter: mapper.FilterToIdenticalAnd[struct{}, struct{}](nil),
		Compose: func(f *folder, documents []*document) folderDocuments {
			return folderDocuments{Folder: f, Documents: documents}
		},
		Cardinality: mapper.Many,
	}
}

var sqliteSchema = []string{
	`CREATE TABLE customer (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	email TEXT NOT NULL,
	name TEXT NOT NULL,
	nickname TEXT
)`,
	`CREATE TABLE supply_point (
	code TEXT PRIMARY KEY,
	customer_id INTEGER NOT NULL,
	amount DECIMAL(10,2) NOT NULL,
	active INTEGER NOT NULL
)`,
	`CREATE TABLE folder (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	name TEXT NOT NULL
)`,
	`CREATE TABLE document (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	folder_id INTEGER,
	title TEXT NOT NULL
)`,
}

// tag has a composite key made of its owner and label.
type tag struct {
	Owner int64
	Label string
	Color string
}

type tagKey struct {
	Owner int64
	Label string
}

var tagMapper = mapper.MustEntityMapper[*tag, struct{}]("tag",
	func() *tag { return &tag{} },
	nil,
	mapper.Column("owner", func(t *tag) int64 { return t.Owner }, func(t *tag, v int64) *tag { t.Owner = v; return t }).AsPrimary(),
	mapper.Column("label", func(t *tag) string { return t.Label }, func(t *tag, v string) *tag { t.Label = v; return t }).AsPrimary(),
	mapper.Column("color", func(t *tag) string { return t.Color }, func(t *tag, v string) *tag { t.Color = v; return t }),
)

const (
	mysqlCustomerTable = `CREATE TABLE customer (
	id INT AUTO_INCREMENT PRIMARY KEY,
	email VARCHAR(255) NOT NULL,
	name VARCHAR(255) NOT NULL,
	nickname VARCHAR(255) NULL
)`
	mysqlSupplyPointTable = `CREATE TABLE supply_point (
	code CHAR(36) PRIMARY KEY,
	customer_id INT NOT NULL,
	amount DECIMAL(10,2) NOT NULL,
	active BOOLEAN NOT NULL
)`
	mysqlFolderTable = `CREATE TABLE folder (
	id BIGINT AUTO_INCREMENT PRIMARY KEY,
	name VARCHAR(255) NOT NULL
)`
	mysqlDocumentTable = `CREATE TABLE document (
	id BIGINT AUTO_INCREMENT PRIMARY KEY,
	folder_id BIGINT NULL,
	title VARCHAR(255) NOT NULL
)`
)

func ptr[V any](v V) *V {
	return &v
}

func newSupplyPoint(customerID int32, amount string, active bool) supplyPoint {
	return supplyPoint{
		Code:       uuid.New(),
		CustomerID: customerID,
		Amount:     decimal.RequireFromString(amount),
		Active:     active,
	}
}

// InsertCustomers inserts the customers bypassing the repository and returns their ids.
func InsertCustomers(t *testing.T, db *sqlx.DB, customers ...customer) []int32 {
	t.Helper()
	ids := make([]int32, 0, len(customers))
	for _, c := range customers {
		result, err := db.Exec("INSERT INTO customer (email, name, nickname) VALUES (?, ?, ?)", c.Email, c.Name, c.Nickname)
		require.NoError(t, err)
		id, err := result.LastInsertId()
		require.NoError(t, err)
		ids = append(ids, int32(id))
	}
	return ids
}

func InsertSupplyPoints(t *testing.T, db *sqlx.DB, points ...supplyPoint) {
	t.Helper()
	for _, p := range points {
		_, err := db.Exec("INSERT INTO supply_point (code, customer_id, amount, active) VALUES (?, ?, ?, ?)",
			p.Code, p.CustomerID, p.Amount, p.Active)
		require.NoError(t, err)
	}
}

func SelectCustomerName(t *testing.T, db *sqlx.DB, id int32) (string, bool) {
	t.Helper()
	var names []string
	require.NoError(t, db.Select(&names, "SELECT name FROM customer WHERE id = ?", id))
	if len(names) == 0 {
		return "", false
	}
	return names[0], true
}

func InsertFolders(t *testing.T, db *sqlx.DB, names ...string) []int64 {
	t.Helper()
	ids := make([]int64, 0, len(names))
	for _, name := range names {
		result, err := db.Exec("INSERT INTO folder (name) VALUES (?)", name)
		require.NoError(t, err)
		id, err := result.LastInsertId()
		require.NoError(t, err)
		ids = append(ids, id)
	}
	return ids
}

func InsertDocuments(t *testing.T, db *sqlx.DB, documents ...document) {
	t.Helper()
	for _, d := range documents {
		_, err := db.Exec("INSERT INTO document (folder_id, title) VALUES (?, ?)", d.FolderID, d.Title)
		require.NoError(t, err)
	}
}
