package models

// Role is the kind of account a user holds
type Role string

// Roles known to the platform
const (
	RolePatient  Role = "patient"
	RolePharmacy Role = "pharmacy"
	RoleAdmin    Role = "admin"
)

// Valid reports whether r is one of the known roles
func (r Role) Valid() bool {
	switch r {
	case RolePatient, RolePharmacy, RoleAdmin:
		return true
	}
	return false
}

// User holds the structure for the user collection in mongo
type User struct {
	ID      string      `json:"_id" bson:"_id"`
	Details UserDetails `json:"user" bson:"user"`
	Version int32       `json:"__v" bson:"__v"`
}

// UserDetails holds the structure for the inner user structure as defined in the user collection in mongo
type UserDetails struct {
	Username      string      `json:"username" bson:"username"`
	Email         string      `json:"email" bson:"email"`
	FirstName     string      `json:"firstName" bson:"firstName"`
	LastName      string      `json:"lastName" bson:"lastName"`
	UserType      Role        `json:"userType" bson:"userType"`
	PharmacyName  string      `json:"pharmacyName,omitempty" bson:"pharmacyName,omitempty"`
	LicenseNumber string      `json:"licenseNumber,omitempty" bson:"licenseNumber,omitempty"`
	Verified      bool        `json:"verified" bson:"verified"`
	CreatedAt     interface{} `json:"createdAt" bson:"createdAt"`
	UpdatedAt     interface{} `json:"updatedAt" bson:"updatedAt"`
}

// IsVerifiedPharmacy reports whether the user is a pharmacy an admin has approved
func (u User) IsVerifiedPharmacy() bool {
	return u.Details.UserType == RolePharmacy && u.Details.Verified
}

// PharmacyVerifyRequest is the body of an admin verification change. An empty
// body verifies the pharmacy.
type PharmacyVerifyRequest struct {
	Verified *bool `json:"verified"`
}
