package store

import (
	"context"
	"sort"
	"strconv"
	"sync"
	"time"

	"WakeOrPay/internal/model"
)

// MemoryStore is an in-process Store for tests and dev deployments that run
// without Postgres. It enforces the same uniqueness rules as the database
// schema under a single mutex.
type MemoryStore struct {
	mu            sync.Mutex
	nextID        int64
	users         map[int64]*model.User
	alarms        map[int64]*model.Alarm
	verifications map[string]*model.VerificationRecord // key: userID|date
	attempts      []*model.WakeAttempt
	transactions  map[int64]*model.PaymentTransaction
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:         make(map[int64]*model.User),
		alarms:        make(map[int64]*model.Alarm),
		verifications: make(map[string]*model.VerificationRecord),
		transactions:  make(map[int64]*model.PaymentTransaction),
	}
}

func verificationKey(userID int64, date string) string {
	return strconv.FormatInt(userID, 10) + "|" + date
}

func (s *MemoryStore) assignID() int64 {
	s.nextID++
	return s.nextID
}

func copyUser(u *model.User) *model.User    { c := *u; return &c }
func copyAlarm(a *model.Alarm) *model.Alarm { c := *a; return &c }
func copyVerification(v *model.VerificationRecord) *model.VerificationRecord {
	c := *v
	return &c
}
func copyAttempt(a *model.WakeAttempt) *model.WakeAttempt { c := *a; return &c }
func copyTransaction(t *model.PaymentTransaction) *model.PaymentTransaction {
	c := *t
	return &c
}

// ---- users ----

func (s *MemoryStore) CreateUser(_ context.Context, user *model.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Email == user.Email || u.PublicID == user.PublicID {
			return ErrDuplicate
		}
	}
	user.ID = s.assignID()
	user.CreatedAt = time.Now()
	user.UpdatedAt = user.CreatedAt
	s.users[user.ID] = copyUser(user)
	return nil
}

func (s *MemoryStore) GetUserByID(_ context.Context, id int64) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	return copyUser(u), nil
}

func (s *MemoryStore) GetUserByPublicID(_ context.Context, publicID int64) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.PublicID == publicID {
			return copyUser(u), nil
		}
	}
	return nil, ErrNotFound
}

func (s *MemoryStore) GetUserByEmail(_ context.Context, email string) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Email == email {
			return copyUser(u), nil
		}
	}
	return nil, ErrNotFound
}

func (s *MemoryStore) SetUserStripeCustomerID(_ context.Context, userID int64, customerID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[userID]
	if !ok {
		return ErrNotFound
	}
	u.StripeCustomerID = &customerID
	u.UpdatedAt = time.Now()
	return nil
}

// ---- alarms ----

func (s *MemoryStore) CreateAlarm(_ context.Context, alarm *model.Alarm) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if alarm.IsActive {
		for _, a := range s.alarms {
			if a.UserID == alarm.UserID && a.IsActive {
				a.IsActive = false
				a.UpdatedAt = time.Now()
			}
		}
	}
	alarm.ID = s.assignID()
	alarm.CreatedAt = time.Now()
	alarm.UpdatedAt = alarm.CreatedAt
	s.alarms[alarm.ID] = copyAlarm(alarm)
	return nil
}

func (s *MemoryStore) GetAlarmByPublicID(_ context.Context, publicID int64) (*model.Alarm, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, a := range s.alarms {
		if a.PublicID == publicID {
			return copyAlarm(a), nil
		}
	}
	return nil, ErrNotFound
}

func (s *MemoryStore) GetActiveAlarm(_ context.Context, userID int64) (*model.Alarm, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, a := range s.alarms {
		if a.UserID == userID && a.IsActive {
			return copyAlarm(a), nil
		}
	}
	return nil, ErrNotFound
}

func (s *MemoryStore) ListAlarms(_ context.Context, userID int64) ([]*model.Alarm, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*model.Alarm
	for _, a := range s.alarms {
		if a.UserID == userID {
			out = append(out, copyAlarm(a))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *MemoryStore) ListActiveAlarms(_ context.Context) ([]*model.Alarm, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*model.Alarm
	for _, a := range s.alarms {
		if a.IsActive {
			out = append(out, copyAlarm(a))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *MemoryStore) UpdateAlarm(_ context.Context, alarm *model.Alarm) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.alarms[alarm.ID]; !ok {
		return ErrNotFound
	}
	alarm.UpdatedAt = time.Now()
	s.alarms[alarm.ID] = copyAlarm(alarm)
	return nil
}

func (s *MemoryStore) ActivateAlarm(_ context.Context, userID, alarmID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	target, ok := s.alarms[alarmID]
	if !ok || target.UserID != userID {
		return ErrNotFound
	}
	for _, a := range s.alarms {
		if a.UserID == userID && a.IsActive && a.ID != alarmID {
			a.IsActive = false
			a.UpdatedAt = time.Now()
		}
	}
	target.IsActive = true
	target.UpdatedAt = time.Now()
	return nil
}

func (s *MemoryStore) DeactivateAlarm(_ context.Context, userID, alarmID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.alarms[alarmID]
	if !ok || a.UserID != userID {
		return ErrNotFound
	}
	a.IsActive = false
	a.UpdatedAt = time.Now()
	return nil
}

// ---- verification records ----

func (s *MemoryStore) GetOrCreateVerification(_ context.Context, rec *model.VerificationRecord) (*model.VerificationRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := verificationKey(rec.UserID, rec.Date)
	if existing, ok := s.verifications[key]; ok {
		return copyVerification(existing), nil
	}
	rec.ID = s.assignID()
	rec.CreatedAt = time.Now()
	rec.UpdatedAt = rec.CreatedAt
	s.verifications[key] = copyVerification(rec)
	return copyVerification(rec), nil
}

func (s *MemoryStore) GetVerification(_ context.Context, userID int64, date string) (*model.VerificationRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.verifications[verificationKey(userID, date)]
	if !ok {
		return nil, ErrNotFound
	}
	return copyVerification(rec), nil
}

func (s *MemoryStore) MarkVerified(_ context.Context, userID int64, date string, at time.Time, method string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.verifications[verificationKey(userID, date)]
	if !ok || rec.Verified {
		return false, nil
	}
	rec.Verified = true
	rec.VerifiedAt = &at
	rec.VerificationMethod = &method
	rec.UpdatedAt = time.Now()
	return true, nil
}

func (s *MemoryStore) ListRecentVerifications(_ context.Context, userID int64, limit int) ([]*model.VerificationRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*model.VerificationRecord
	for _, rec := range s.verifications {
		if rec.UserID == userID {
			out = append(out, copyVerification(rec))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date > out[j].Date })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// ---- wake attempts ----

func (s *MemoryStore) CreateWakeAttempt(_ context.Context, attempt *model.WakeAttempt) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	attempt.ID = s.assignID()
	attempt.CreatedAt = time.Now()
	attempt.UpdatedAt = attempt.CreatedAt
	s.attempts = append(s.attempts, copyAttempt(attempt))
	return nil
}

func (s *MemoryStore) ListWakeAttempts(_ context.Context, userID int64, date string) ([]*model.WakeAttempt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*model.WakeAttempt
	for _, a := range s.attempts {
		if a.UserID == userID && a.Date == date {
			out = append(out, copyAttempt(a))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].AttemptedAt.Before(out[j].AttemptedAt) })
	return out, nil
}

// ---- payment transactions ----

func (s *MemoryStore) CreateTransaction(_ context.Context, tx *model.PaymentTransaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range s.transactions {
		if t.WakeAttemptID == tx.WakeAttemptID ||
			t.ProcessorIntentID == tx.ProcessorIntentID ||
			(t.UserID == tx.UserID && t.ChargeDate == tx.ChargeDate) {
			return ErrDuplicate
		}
	}
	tx.ID = s.assignID()
	tx.CreatedAt = time.Now()
	tx.UpdatedAt = tx.CreatedAt
	s.transactions[tx.ID] = copyTransaction(tx)
	return nil
}

func (s *MemoryStore) GetTransactionByUserDate(_ context.Context, userID int64, chargeDate string) (*model.PaymentTransaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range s.transactions {
		if t.UserID == userID && t.ChargeDate == chargeDate {
			return copyTransaction(t), nil
		}
	}
	return nil, ErrNotFound
}

func (s *MemoryStore) GetTransactionByIntentID(_ context.Context, intentID string) (*model.PaymentTransaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range s.transactions {
		if t.ProcessorIntentID == intentID {
			return copyTransaction(t), nil
		}
	}
	return nil, ErrNotFound
}

func (s *MemoryStore) UpdateTransactionStatus(_ context.Context, intentID string, status model.TransactionStatus, failureCode *string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range s.transactions {
		if t.ProcessorIntentID == intentID {
			t.Status = status
			if failureCode != nil {
				t.FailureCode = failureCode
			}
			t.UpdatedAt = time.Now()
			return nil
		}
	}
	return ErrNotFound
}

func (s *MemoryStore) ListTransactions(_ context.Context, userID int64, limit int) ([]*model.PaymentTransaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*model.PaymentTransaction
	for _, t := range s.transactions {
		if t.UserID == userID {
			out = append(out, copyTransaction(t))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ChargeDate > out[j].ChargeDate })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
