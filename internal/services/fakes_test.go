package services

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"sync"
	"time"

	"oneridetho/internal/models"
	"oneridetho/internal/repositories/interfaces"
	"oneridetho/pkg/cache"
	"oneridetho/pkg/email"
	"oneridetho/pkg/maps"
	"oneridetho/pkg/payment"
	"oneridetho/pkg/push"
	"oneridetho/pkg/sms"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// snapshotter lets fakeTransactor roll a fake store back on error.
type snapshotter interface {
	snapshot() (restore func())
}

type fakeUserRepo struct {
	mu    sync.Mutex
	users map[primitive.ObjectID]*models.User
}

func newFakeUserRepo(users ...*models.User) *fakeUserRepo {
	r := &fakeUserRepo{users: make(map[primitive.ObjectID]*models.User)}
	for _, u := range users {
		if u.ID.IsZero() {
			u.ID = primitive.NewObjectID()
		}
		r.users[u.ID] = u
	}
	return r
}

func (r *fakeUserRepo) Create(ctx context.Context, user *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if (user.Email != "" && u.Email == user.Email) || (user.Phone != "" && u.Phone == user.Phone) {
			return interfaces.ErrDuplicateKey
		}
	}
	if user.ID.IsZero() {
		user.ID = primitive.NewObjectID()
	}
	cp := *user
	r.users[user.ID] = &cp
	return nil
}

func (r *fakeUserRepo) GetByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, interfaces.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (r *fakeUserRepo) find(match func(*models.User) bool) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if match(u) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, interfaces.ErrNotFound
}

func (r *fakeUserRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.find(func(u *models.User) bool { return u.Email == email })
}

func (r *fakeUserRepo) GetByPhone(ctx context.Context, phone string) (*models.User, error) {
	return r.find(func(u *models.User) bool { return u.Phone == phone })
}

func (r *fakeUserRepo) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	_, err := r.GetByEmail(ctx, email)
	return err == nil, nil
}

func (r *fakeUserRepo) ExistsByPhone(ctx context.Context, phone string) (bool, error) {
	_, err := r.GetByPhone(ctx, phone)
	return err == nil, nil
}

func (r *fakeUserRepo) Update(ctx context.Context, id primitive.ObjectID, updates map[string]interface{}) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return interfaces.ErrNotFound
	}
	for k, v := range updates {
		switch k {
		case "photo_url":
			u.PhotoURL = v.(string)
		case "government_issued_id":
			u.GovernmentIssuedID = v.(string)
		case "verification_photo_url":
			u.VerificationPhotoURL = v.(string)
		case "verified":
			u.Verified = v.(bool)
		case "name":
			u.Name = v.(string)
		}
	}
	return nil
}

func (r *fakeUserRepo) snapshot() func() {
	r.mu.Lock()
	defer r.mu.Unlock()
	saved := make(map[primitive.ObjectID]*models.User, len(r.users))
	for k, v := range r.users {
		cp := *v
		saved[k] = &cp
	}
	return func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		r.users = saved
	}
}

type fakeAccountRepo struct {
	mu        sync.Mutex
	accounts  map[primitive.ObjectID]*models.Account
	createErr error
}

func newFakeAccountRepo() *fakeAccountRepo {
	return &fakeAccountRepo{accounts: make(map[primitive.ObjectID]*models.Account)}
}

func (r *fakeAccountRepo) Create(ctx context.Context, account *models.Account) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.createErr != nil {
		return r.createErr
	}
	if account.ID.IsZero() {
		account.ID = primitive.NewObjectID()
	}
	cp := *account
	r.accounts[account.ID] = &cp
	return nil
}

func (r *fakeAccountRepo) GetByEmail(ctx context.Context, email string) (*models.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, a := range r.accounts {
		if a.Email == email {
			cp := *a
			return &cp, nil
		}
	}
	return nil, interfaces.ErrNotFound
}

func (r *fakeAccountRepo) GetByUserID(ctx context.Context, userID primitive.ObjectID) (*models.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, a := range r.accounts {
		if a.UserID == userID {
			cp := *a
			return &cp, nil
		}
	}
	return nil, interfaces.ErrNotFound
}

func (r *fakeAccountRepo) UpdatePassword(ctx context.Context, id primitive.ObjectID, passwordHash string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.accounts[id]
	if !ok {
		return interfaces.ErrNotFound
	}
	a.Password = passwordHash
	return nil
}

func (r *fakeAccountRepo) snapshot() func() {
	r.mu.Lock()
	defer r.mu.Unlock()
	saved := make(map[primitive.ObjectID]*models.Account, len(r.accounts))
	for k, v := range r.accounts {
		cp := *v
		saved[k] = &cp
	}
	return func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		r.accounts = saved
	}
}

type fakeSessionRepo struct {
	mu       sync.Mutex
	sessions map[string]*models.Session
}

func newFakeSessionRepo() *fakeSessionRepo {
	return &fakeSessionRepo{sessions: make(map[string]*models.Session)}
}

func (r *fakeSessionRepo) Create(ctx context.Context, session *models.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	session.ID = primitive.NewObjectID()
	cp := *session
	r.sessions[session.SessionToken] = &cp
	return nil
}

func (r *fakeSessionRepo) GetByToken(ctx context.Context, token string) (*models.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[token]
	if !ok {
		return nil, interfaces.ErrNotFound
	}
	cp := *s
	return &cp, nil
}

func (r *fakeSessionRepo) DeleteByToken(ctx context.Context, token string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.sessions[token]; !ok {
		return interfaces.ErrNotFound
	}
	delete(r.sessions, token)
	return nil
}

type fakeRideRepo struct {
	mu         sync.Mutex
	rides      map[primitive.ObjectID]*models.Ride
	creates    int
	getErr     error
	paymentErr error
}

func newFakeRideRepo(rides ...*models.Ride) *fakeRideRepo {
	r := &fakeRideRepo{rides: make(map[primitive.ObjectID]*models.Ride)}
	for _, ride := range rides {
		if ride.ID.IsZero() {
			ride.ID = primitive.NewObjectID()
		}
		r.rides[ride.ID] = ride
	}
	return r
}

func (r *fakeRideRepo) Create(ctx context.Context, ride *models.Ride) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if ride.IdempotencyKey != "" {
		for _, existing := range r.rides {
			if existing.UserID == ride.UserID && existing.IdempotencyKey == ride.IdempotencyKey {
				return interfaces.ErrDuplicateKey
			}
		}
	}
	if ride.ID.IsZero() {
		ride.ID = primitive.NewObjectID()
	}
	cp := *ride
	r.rides[ride.ID] = &cp
	r.creates++
	return nil
}

func (r *fakeRideRepo) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Ride, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.getErr != nil {
		return nil, r.getErr
	}
	ride, ok := r.rides[id]
	if !ok {
		return nil, interfaces.ErrNotFound
	}
	cp := *ride
	return &cp, nil
}

func (r *fakeRideRepo) GetByIdempotencyKey(ctx context.Context, userID primitive.ObjectID, key string) (*models.Ride, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, ride := range r.rides {
		if ride.UserID == userID && ride.IdempotencyKey == key {
			cp := *ride
			return &cp, nil
		}
	}
	return nil, interfaces.ErrNotFound
}

func (r *fakeRideRepo) ListByUser(ctx context.Context, userID primitive.ObjectID) ([]*models.Ride, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.Ride
	for _, ride := range r.rides {
		if ride.UserID == userID {
			cp := *ride
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *fakeRideRepo) ExistsScheduledAt(ctx context.Context, userID primitive.ObjectID, pickupTime time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, ride := range r.rides {
		if ride.UserID == userID && ride.Status == models.RideStatusScheduled &&
			ride.DropoffTime == nil && ride.PickupTime.Equal(pickupTime) {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeRideRepo) ExistsWithStatus(ctx context.Context, userID primitive.ObjectID, statuses ...models.RideStatus) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, ride := range r.rides {
		if ride.UserID != userID {
			continue
		}
		for _, s := range statuses {
			if ride.Status == s {
				return true, nil
			}
		}
	}
	return false, nil
}

func (r *fakeRideRepo) MarkCancelled(ctx context.Context, id primitive.ObjectID, at time.Time) (*models.Ride, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ride, ok := r.rides[id]
	if !ok || ride.Status.IsTerminal() {
		return nil, interfaces.ErrConflict
	}
	ride.Status = models.RideStatusCancelled
	ride.CancelledAt = &at
	ride.UpdatedAt = at
	cp := *ride
	return &cp, nil
}

func (r *fakeRideRepo) UpdatePaymentStatus(ctx context.Context, id primitive.ObjectID, status models.PaymentStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.paymentErr != nil {
		return r.paymentErr
	}
	ride, ok := r.rides[id]
	if !ok {
		return interfaces.ErrNotFound
	}
	ride.PaymentStatus = status
	return nil
}

func (r *fakeRideRepo) set(id primitive.ObjectID, mutate func(*models.Ride)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	mutate(r.rides[id])
}

type fakeDriverRepo struct {
	mu              sync.Mutex
	drivers         map[primitive.ObjectID]*models.Driver
	updateRatingErr error
}

func newFakeDriverRepo(drivers ...*models.Driver) *fakeDriverRepo {
	r := &fakeDriverRepo{drivers: make(map[primitive.ObjectID]*models.Driver)}
	for _, d := range drivers {
		if d.ID.IsZero() {
			d.ID = primitive.NewObjectID()
		}
		r.drivers[d.ID] = d
	}
	return r
}

func (r *fakeDriverRepo) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Driver, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok := r.drivers[id]
	if !ok {
		return nil, interfaces.ErrNotFound
	}
	cp := *d
	return &cp, nil
}

func (r *fakeDriverRepo) ListActive(ctx context.Context) ([]*models.Driver, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.Driver
	for _, d := range r.drivers {
		if d.Active {
			cp := *d
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r *fakeDriverRepo) UpdateRating(ctx context.Context, id primitive.ObjectID, rating float64, numberOfRatings int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.updateRatingErr != nil {
		return r.updateRatingErr
	}
	d, ok := r.drivers[id]
	if !ok {
		return interfaces.ErrNotFound
	}
	d.Rating = rating
	d.NumberOfRatings = numberOfRatings
	return nil
}

func (r *fakeDriverRepo) snapshot() func() {
	r.mu.Lock()
	defer r.mu.Unlock()
	saved := make(map[primitive.ObjectID]*models.Driver, len(r.drivers))
	for k, v := range r.drivers {
		cp := *v
		saved[k] = &cp
	}
	return func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		r.drivers = saved
	}
}

type fakeLocationRepo struct {
	mu        sync.Mutex
	locations map[primitive.ObjectID]*models.DriverLocation
}

func newFakeLocationRepo() *fakeLocationRepo {
	return &fakeLocationRepo{locations: make(map[primitive.ObjectID]*models.DriverLocation)}
}

func (r *fakeLocationRepo) GetByDriverID(ctx context.Context, driverID primitive.ObjectID) (*models.DriverLocation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	loc, ok := r.locations[driverID]
	if !ok {
		return nil, interfaces.ErrNotFound
	}
	cp := *loc
	return &cp, nil
}

func (r *fakeLocationRepo) Upsert(ctx context.Context, location *models.DriverLocation) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *location
	r.locations[location.DriverID] = &cp
	return nil
}

type fakeRatingRepo struct {
	mu        sync.Mutex
	ratings   map[primitive.ObjectID]*models.Rating
	createErr error
}

func newFakeRatingRepo() *fakeRatingRepo {
	return &fakeRatingRepo{ratings: make(map[primitive.ObjectID]*models.Rating)}
}

func (r *fakeRatingRepo) Create(ctx context.Context, rating *models.Rating) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.createErr != nil {
		return r.createErr
	}
	if _, ok := r.ratings[rating.RideID]; ok {
		return interfaces.ErrDuplicateKey
	}
	rating.ID = primitive.NewObjectID()
	cp := *rating
	r.ratings[rating.RideID] = &cp
	return nil
}

func (r *fakeRatingRepo) GetByRideID(ctx context.Context, rideID primitive.ObjectID) (*models.Rating, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rating, ok := r.ratings[rideID]
	if !ok {
		return nil, interfaces.ErrNotFound
	}
	cp := *rating
	return &cp, nil
}

func (r *fakeRatingRepo) snapshot() func() {
	r.mu.Lock()
	defer r.mu.Unlock()
	saved := make(map[primitive.ObjectID]*models.Rating, len(r.ratings))
	for k, v := range r.ratings {
		cp := *v
		saved[k] = &cp
	}
	return func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		r.ratings = saved
	}
}

// fakeTransactor restores every participating store when fn fails.
type fakeTransactor struct {
	stores []snapshotter
	runs   int
}

func (t *fakeTransactor) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	t.runs++
	restores := make([]func(), 0, len(t.stores))
	for _, s := range t.stores {
		restores = append(restores, s.snapshot())
	}
	if err := fn(ctx); err != nil {
		for _, restore := range restores {
			restore()
		}
		return err
	}
	return nil
}

type fakeCache struct {
	mu     sync.Mutex
	data   map[string][]byte
	setErr error
}

func newFakeCache() *fakeCache {
	return &fakeCache{data: make(map[string][]byte)}
}

func (c *fakeCache) Get(ctx context.Context, key string, dest interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	raw, ok := c.data[key]
	if !ok {
		return cache.ErrCacheMiss
	}
	return json.Unmarshal(raw, dest)
}

func (c *fakeCache) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.setErr != nil {
		return c.setErr
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	c.data[key] = raw
	return nil
}

func (c *fakeCache) SetNX(ctx context.Context, key string, value interface{}, expiration time.Duration) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.data[key]; ok {
		return false, nil
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return false, err
	}
	c.data[key] = raw
	return true, nil
}

func (c *fakeCache) GetDel(ctx context.Context, key string, dest interface{}) error {
	c.mu.Lock()
	raw, ok := c.data[key]
	delete(c.data, key)
	c.mu.Unlock()
	if !ok {
		return cache.ErrCacheMiss
	}
	return json.Unmarshal(raw, dest)
}

func (c *fakeCache) Delete(ctx context.Context, keys ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, k := range keys {
		delete(c.data, k)
	}
	return nil
}

func (c *fakeCache) has(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.data[key]
	return ok
}

// fakeMaps answers every route with the same distance.
type fakeMaps struct {
	meters   float64
	err      error
	status   string
	geocoded []maps.GeocodeResult
}

func (m *fakeMaps) Geocode(ctx context.Context, address string) (*maps.GeocodeResponse, error) {
	if m.err != nil {
		return nil, m.err
	}
	return &maps.GeocodeResponse{Results: m.geocoded}, nil
}

func (m *fakeMaps) ReverseGeocode(ctx context.Context, lat, lng float64) (*maps.GeocodeResponse, error) {
	return m.Geocode(ctx, "")
}

func (m *fakeMaps) GetDirections(ctx context.Context, request *maps.DirectionsRequest) (*maps.DirectionsResponse, error) {
	if m.err != nil {
		return nil, m.err
	}
	if m.status != "" && m.status != maps.StatusOK {
		return &maps.DirectionsResponse{}, nil
	}
	return &maps.DirectionsResponse{Routes: []maps.Route{{
		Distance: maps.Distance{Value: m.meters},
		Duration: maps.Duration{Value: 600},
		Legs:     len(request.Waypoints) + 1,
	}}}, nil
}

func (m *fakeMaps) CalculateDistance(ctx context.Context, request *maps.DistanceRequest) (*maps.DistanceResponse, error) {
	if m.err != nil {
		return nil, m.err
	}
	status := m.status
	if status == "" {
		status = maps.StatusOK
	}
	return &maps.DistanceResponse{Rows: []maps.DistanceRow{{Elements: []maps.DistanceElement{{
		Distance: maps.Distance{Value: m.meters},
		Duration: maps.Duration{Value: 600},
		Status:   status,
	}}}}}, nil
}

func (m *fakeMaps) Autocomplete(ctx context.Context, request *maps.AutocompleteRequest) (*maps.AutocompleteResponse, error) {
	if m.err != nil {
		return nil, m.err
	}
	return &maps.AutocompleteResponse{Predictions: []maps.Prediction{
		{PlaceID: "1", Description: request.Input + " Street, Nassau"},
	}}, nil
}

type notifyCall struct {
	subject string
	body    string
	driver  *models.Driver
}

// recordingNotifier stands in for the fan-out in booking tests.
type recordingNotifier struct {
	mu         sync.Mutex
	broadcasts []notifyCall
	direct     []notifyCall
	recovery   []string
	err        error
}

func (n *recordingNotifier) FanOut(ctx context.Context, b *models.Broadcast) *models.FanOutResult {
	return &models.FanOutResult{}
}

func (n *recordingNotifier) NotifyDrivers(ctx context.Context, subject, body string, data map[string]string) (*models.FanOutResult, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.broadcasts = append(n.broadcasts, notifyCall{subject: subject, body: body})
	return &models.FanOutResult{}, nil
}

func (n *recordingNotifier) NotifyDriver(ctx context.Context, driver *models.Driver, subject, body string, data map[string]string) *models.FanOutResult {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.direct = append(n.direct, notifyCall{subject: subject, body: body, driver: driver})
	return &models.FanOutResult{}
}

func (n *recordingNotifier) SendPasswordRecovery(ctx context.Context, kind models.ContactKind, contact, code string, valid time.Duration) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.err != nil {
		return n.err
	}
	n.recovery = append(n.recovery, code)
	return nil
}

func (n *recordingNotifier) lastCode() string {
	n.mu.Lock()
	defer n.mu.Unlock()
	if len(n.recovery) == 0 {
		return ""
	}
	return n.recovery[len(n.recovery)-1]
}

type fakeSMS struct {
	mu      sync.Mutex
	failFor map[string]bool
	sent    []string
}

func (f *fakeSMS) Name() string { return "fake" }

func (f *fakeSMS) SendSMS(ctx context.Context, request *sms.SMSRequest) (*sms.SMSResponse, error) {
	if f.failFor[request.To] {
		return nil, errors.New("carrier rejected")
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, request.To)
	return &sms.SMSResponse{MessageID: "m-" + request.To, Status: "queued"}, nil
}

type fakeMailer struct {
	mu      sync.Mutex
	failFor map[string]bool
	sent    []*email.Message
}

func (f *fakeMailer) Send(ctx context.Context, message *email.Message) error {
	if f.failFor[message.To] {
		return errors.New("mailbox unavailable")
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, message)
	return nil
}

type fakePush struct {
	mu   sync.Mutex
	sent []string
}

func (f *fakePush) Send(ctx context.Context, platform string, request *push.NotificationRequest) (*push.NotificationResponse, error) {
	if platform != push.PlatformAndroid && platform != push.PlatformIOS {
		return nil, errors.New("unsupported platform")
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, request.Token)
	return &push.NotificationResponse{Success: true, Token: request.Token}, nil
}

type fakeGateway struct {
	name       string
	createErr  error
	created    []*payment.HostedPaymentRequest
	status     *payment.PaymentStatus
	event      *payment.WebhookEvent
	webhookErr error
}

func (g *fakeGateway) Name() string { return g.name }

func (g *fakeGateway) CreateHostedPayment(ctx context.Context, request *payment.HostedPaymentRequest) (*payment.HostedPaymentResponse, error) {
	if g.createErr != nil {
		return nil, g.createErr
	}
	g.created = append(g.created, request)
	return &payment.HostedPaymentResponse{PaymentID: "pay_1", URL: "https://pay.example.com/" + request.OrderID}, nil
}

func (g *fakeGateway) FetchPayment(ctx context.Context, paymentID string) (*payment.PaymentStatus, error) {
	if g.status == nil {
		return nil, errors.New("unknown payment")
	}
	return g.status, nil
}

func (g *fakeGateway) ValidateWebhook(ctx context.Context, payload []byte, signature string) (*payment.WebhookEvent, error) {
	if g.webhookErr != nil {
		return nil, g.webhookErr
	}
	return g.event, nil
}
