package domain

import (
	"fmt"
	"strconv"
	"strings"
)

// Department is a fixed government functional area.
type Department string

const (
	DepartmentWaterSupply   Department = "Water Supply"
	DepartmentSanitation    Department = "Sanitation"
	DepartmentRoad          Department = "Road"
	DepartmentElectricity   Department = "Electricity"
	DepartmentHealth        Department = "Health"
	DepartmentEducation     Department = "Education"
	DepartmentSocialWelfare Department = "Social Welfare"
	DepartmentTransport     Department = "Transport"
	DepartmentOthers        Department = "Others"
)

var departments = []Department{
	DepartmentWaterSupply,
	DepartmentSanitation,
	DepartmentRoad,
	DepartmentElectricity,
	DepartmentHealth,
	DepartmentEducation,
	DepartmentSocialWelfare,
	DepartmentTransport,
	DepartmentOthers,
}

// Departments returns the closed department set.
func Departments() []Department {
	return append([]Department(nil), departments...)
}

func (d Department) IsValid() bool {
	for _, known := range departments {
		if d == known {
			return true
		}
	}
	return false
}

// ParseDepartment matches value against the department set ignoring case and surrounding space.
func ParseDepartment(value string) (Department, bool) {
	value = strings.TrimSpace(value)
	for _, known := range departments {
		if strings.EqualFold(string(known), value) {
			return known, true
		}
	}
	return "", false
}

// Ward is a fixed administrative sub-district.
type Ward string

// WardCount is the number of wards served.
const WardCount = 10

// WardNumber builds the canonical ward name for n.
func WardNumber(n int) Ward {
	return Ward(fmt.Sprintf("Ward %d", n))
}

// Wards returns the closed ward set.
func Wards() []Ward {
	wards := make([]Ward, 0, WardCount)
	for i := 1; i <= WardCount; i++ {
		wards = append(wards, WardNumber(i))
	}
	return wards
}

func (w Ward) IsValid() bool {
	parsed, ok := ParseWard(string(w))
	return ok && parsed == w
}

// ParseWard accepts "Ward N" in any case, or the bare numeral N, for N in 1..WardCount.
func ParseWard(value string) (Ward, bool) {
	value = strings.ToLower(strings.TrimSpace(value))
	value = strings.TrimSpace(strings.TrimPrefix(value, "ward"))
	n, err := strconv.Atoi(value)
	if err != nil || n < 1 || n > WardCount {
		return "", false
	}
	return WardNumber(n), true
}
