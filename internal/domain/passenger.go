package domain

type Gender string

const (
	GenderMale   Gender = "MALE"
	GenderFemale Gender = "FEMALE"
)

type Passenger struct {
	ID              string `json:"id,omitempty"`
	FirstName       string `json:"firstName"`
	LastName        string `json:"lastName"`
	DateOfBirth     string `json:"dateOfBirth"`
	Gender          Gender `json:"gender"`
	PassportNumber  string `json:"passportNumber,omitempty"`
	PassportExpiry  string `json:"passportExpiry,omitempty"`
	PassportCountry string `json:"passportCountry,omitempty"`
	Nationality     string `json:"nationality,omitempty"`
}

func (p Passenger) FullName() string {
	return p.FirstName + " " + p.LastName
}

type Contact struct {
	Email   string `json:"email"`
	Phone   string `json:"phone"`
	Address string `json:"address,omitempty"`
}
