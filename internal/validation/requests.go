package validation

import (
	"github.com/locauto/locauto/internal/types"
)

// MaxFieldLength bounds free-text fields on create and update requests.
const MaxFieldLength = 200

// ValidateNewVehicle validates a vehicle creation request.
func ValidateNewVehicle(v types.NewVehicle) []ValidationError {
	var c Collector
	c.Add(ValidateRequired("registration", v.Registration))
	c.Add(ValidateMaxLength("registration", v.Registration, MaxFieldLength))
	c.Add(ValidateRequired("make", v.Make))
	c.Add(ValidateMaxLength("make", v.Make, MaxFieldLength))
	c.Add(ValidateRequired("model", v.Model))
	c.Add(ValidateMaxLength("model", v.Model, MaxFieldLength))
	c.Add(ValidateEnum("category", string(v.Category), []string{
		string(types.CategoryOwned),
		string(types.CategoryLeased),
		string(types.CategorySubLease),
	}))
	c.Add(ValidateNonNegative("mileage_km", v.MileageKm))
	if v.NextServiceKm != nil {
		c.Add(ValidateNonNegative("next_service_km", *v.NextServiceKm))
	}
	return c.Errors()
}

// ValidateNewClient validates a client creation request.
func ValidateNewClient(cl types.NewClient) []ValidationError {
	var c Collector
	c.Add(ValidateRequired("name", cl.Name))
	c.Add(ValidateMaxLength("name", cl.Name, MaxFieldLength))
	c.Add(ValidateUTF8("name", cl.Name))
	if cl.Email != "" {
		c.Add(ValidateEmail("email", cl.Email))
	}
	return c.Errors()
}

// ValidateNewContract validates a contract creation request.
func ValidateNewContract(ct types.NewContract) []ValidationError {
	var c Collector
	c.Add(ValidateRequired("vehicle_id", ct.VehicleID))
	c.Add(ValidateRequired("client_id", ct.ClientID))
	c.Add(ValidatePeriod("ends_at", ct.StartsAt, ct.EndsAt))
	c.Add(ValidateNonNegative("daily_rate_cents", ct.DailyRateCents))
	return c.Errors()
}

// ValidateNewUser validates a user provisioning request. Password strength
// is checked separately at hashing time.
func ValidateNewUser(u types.NewUser) []ValidationError {
	var c Collector
	c.Add(ValidateRequired("email", u.Email))
	c.Add(ValidateEmail("email", u.Email))
	c.Add(ValidateRequired("name", u.Name))
	c.Add(ValidateMaxLength("name", u.Name, MaxFieldLength))
	if u.Role != "" {
		c.Add(ValidateEnum("role", string(u.Role), []string{
			string(types.RoleAdmin),
			string(types.RoleAgent),
		}))
	}
	return c.Errors()
}

// ValidateThresholds validates alert threshold settings.
func ValidateThresholds(t types.AlertThresholds) []ValidationError {
	var c Collector
	c.Add(ValidateNonNegative("insurance_days", int64(t.InsuranceDays)))
	c.Add(ValidateNonNegative("inspection_days", int64(t.InspectionDays)))
	c.Add(ValidateNonNegative("vignette_days", int64(t.VignetteDays)))
	c.Add(ValidateNonNegative("cheque_days", int64(t.ChequeDays)))
	c.Add(ValidateNonNegative("installment_days", int64(t.InstallmentDays)))
	return c.Errors()
}
