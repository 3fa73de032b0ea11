package registration

import "time"

// Role of an identity on the platform. The bot only registers workers;
// employers come through the web signup.
const (
	RoleWorker   = "worker"
	RoleEmployer = "employer"
)

// Document review status values.
const (
	DocStatusPending  = "pending"
	DocStatusVerified = "verified"
	DocStatusRejected = "rejected"
)

// Identity is the durable base user record keyed by contact channel.
type Identity struct {
	ID        string    `bson:"_id,omitempty" json:"id"`
	Phone     string    `bson:"phone" json:"phone"`
	Email     string    `bson:"email,omitempty" json:"email,omitempty"`
	FirstName string    `bson:"firstName,omitempty" json:"firstName,omitempty"`
	LastName  string    `bson:"lastName,omitempty" json:"lastName,omitempty"`
	Role      string    `bson:"role" json:"role"`
	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt" json:"updatedAt"`
}

// Profile is the base profile linked to an identity.
type Profile struct {
	ID          string    `bson:"_id,omitempty" json:"id"`
	IdentityID  string    `bson:"identityId" json:"identityId"`
	Status      string    `bson:"status" json:"status"`
	ConsentedAt time.Time `bson:"consentedAt" json:"consentedAt"`
	CreatedAt   time.Time `bson:"createdAt" json:"createdAt"`
}

// WorkerProfile holds the registration fields collected by the bot.
type WorkerProfile struct {
	ID         string    `bson:"_id,omitempty" json:"id"`
	IdentityID string    `bson:"identityId" json:"identityId"`
	IDNumber   string    `bson:"idNumber" json:"idNumber"`
	BirthDate  time.Time `bson:"birthDate" json:"birthDate"`
	Sex        string    `bson:"sex" json:"sex"`
	SACitizen  bool      `bson:"saCitizen" json:"saCitizen"`
	IDVerified bool      `bson:"idVerified" json:"idVerified"`
	CategoryID string    `bson:"categoryId" json:"categoryId"`
	TitleID    string    `bson:"titleId" json:"titleId"`
	Location   string    `bson:"location" json:"location"`
	CreatedAt  time.Time `bson:"createdAt" json:"createdAt"`
}

// DocumentRecord is one durable, review-pending document; created only by
// the finalization transaction.
type DocumentRecord struct {
	ID         string    `bson:"_id,omitempty" json:"id"`
	IdentityID string    `bson:"identityId" json:"identityId"`
	ProfileID  string    `bson:"profileId" json:"profileId"`
	TypeCode   string    `bson:"typeCode" json:"typeCode"`
	URL        string    `bson:"url" json:"url"`
	Status     string    `bson:"status" json:"status"`
	UploadedAt time.Time `bson:"uploadedAt" json:"uploadedAt"`
}
