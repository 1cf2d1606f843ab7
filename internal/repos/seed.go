package repos

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"

	"freshmart/internal/domain"
)

var seedNS = uuid.MustParse("9b1c1a52-3f0e-4c55-9a57-0c9f3b7d2e10")

// ProductID is the stable id of a seeded product.
func ProductID(name string) string {
	return uuid.NewSHA1(seedNS, []byte("product/"+name)).String()
}

// UserID is the stable id of a seeded user.
func UserID(email string) string {
	return uuid.NewSHA1(seedNS, []byte("user/"+email)).String()
}

type seedProduct struct {
	name, price, image, category string
	inStock                      bool
}

var seedProducts = []seedProduct{
	{"Organic Apples", "3.99", "https://images.pexels.com/photos/2487443/pexels-photo-2487443.jpeg", "Produce", true},
	{"Whole Milk (Gallon)", "4.50", "https://cdn.pixabay.com/photo/2017/07/05/15/41/milk-2474993_1280.jpg", "Dairy", true},
	{"Artisan Bread", "2.75", "https://cdn.pixabay.com/photo/2018/06/10/20/30/bread-3467243_1280.jpg", "Bakery", true},
	{"Cage-Free Eggs (Dozen)", "5.20", "https://cdn.pixabay.com/photo/2022/07/26/13/55/egg-7345934_1280.jpg", "Dairy", false},
	{"Avocado (Each)", "1.50", "https://cdn.pixabay.com/photo/2015/08/10/12/02/avocados-882635_1280.jpg", "Produce", true},
	{"Salmon Fillet (LB)", "12.99", "https://cdn.pixabay.com/photo/2017/05/19/13/06/salmon-2326479_1280.jpg", "Seafood", true},
	{"Organic Spinach", "3.20", "https://cdn.pixabay.com/photo/2018/06/08/22/16/spinach-3463248_1280.jpg", "Produce", true},
	{"Ground Coffee (Bag)", "8.99", "https://cdn.pixabay.com/photo/2018/06/06/10/13/coffee-beans-3457587_1280.jpg", "Pantry", true},
	{"Blueberries (Pint)", "4.99", "https://cdn.pixabay.com/photo/2020/07/18/13/01/blueberry-5417154_1280.jpg", "Produce", true},
	{"Cheddar Cheese (Block)", "7.50", "https://as2.ftcdn.net/v2/jpg/00/75/52/99/1000_F_75529950_twH3BeBeXBTbXxsf8CiVkJBRsze9BBHv.jpg", "Dairy", true},
}

type seedDiscount struct {
	code, pct string
	expires   *time.Time
}

func ptrTime(t time.Time) *time.Time { return &t }

var seedDiscounts = []seedDiscount{
	{"SAVE10", "10", nil},
	{"FRESH20", "20", ptrTime(time.Date(2099, 1, 1, 0, 0, 0, 0, time.UTC))},
	{"SPRING5", "5", ptrTime(time.Date(2020, 4, 1, 0, 0, 0, 0, time.UTC))},
}

type seedUser struct{ email, role, password string }

var seedUsers = []seedUser{
	{"admin@freshmart.test", domain.RoleAdmin, "Adm1n!Passw0rd"},
	{"shopper@freshmart.test", domain.RoleUser, "Shopp3r!Passw0rd"},
}

var (
	seedHashesOnce sync.Once
	seedHashes     map[string]string
	seedHashErr    error
)

// hashes are computed once per process; tests open many stores.
func seedUserHashes() (map[string]string, error) {
	seedHashesOnce.Do(func() {
		seedHashes = make(map[string]string, len(seedUsers))
		for _, u := range seedUsers {
			h, err := bcrypt.GenerateFromPassword([]byte(u.password), bcrypt.DefaultCost)
			if err != nil {
				seedHashErr = err
				return
			}
			seedHashes[u.email] = string(h)
		}
	})
	return seedHashes, seedHashErr
}

// seed is idempotent; safe to run every start.
func (s *Store) seed(ctx context.Context) error {
	hashes, err := seedUserHashes()
	if err != nil {
		return err
	}
	now := time.Now().UTC()

	return s.InTx(ctx, func(tx *Tx) error {
		for _, p := range seedProducts {
			img := p.image
			if _, err := tx.tx.ExecContext(ctx, tx.tx.Rebind(`
				INSERT INTO products(id, name, price, image_url, in_stock, category, created_at, updated_at)
				VALUES(?, ?, ?, ?, ?, ?, ?, ?)
				ON CONFLICT(name) DO NOTHING
			`), ProductID(p.name), p.name, decimal.RequireFromString(p.price), &img, p.inStock, p.category, now, now); err != nil {
				return err
			}
		}
		for _, d := range seedDiscounts {
			if _, err := tx.tx.ExecContext(ctx, tx.tx.Rebind(`
				INSERT INTO discount_codes(code, percentage, expires_at, created_at)
				VALUES(?, ?, ?, ?)
				ON CONFLICT(code) DO NOTHING
			`), d.code, decimal.RequireFromString(d.pct), d.expires, now); err != nil {
				return err
			}
		}
		for _, u := range seedUsers {
			if _, err := tx.tx.ExecContext(ctx, tx.tx.Rebind(`
				INSERT INTO users(id, email, password_hash, role, created_at, updated_at)
				VALUES(?, ?, ?, ?, ?, ?)
				ON CONFLICT DO NOTHING
			`), UserID(u.email), u.email, hashes[u.email], u.role, now, now); err != nil {
				return err
			}
		}
		return nil
	})
}
