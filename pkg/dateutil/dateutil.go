package dateutil

import (
	"time"
)

// Age calculates the age at a given date
func Age(birthDate, atDate time.Time) int {
	age := atDate.Year() - birthDate.Year()
	if atDate.Month() < birthDate.Month() ||
		(atDate.Month() == birthDate.Month() && atDate.Day() < birthDate.Day()) {
		age--
	}
	return age
}

// AgeInMonths returns the whole months elapsed since birth at the given date.
func AgeInMonths(birthDate, atDate time.Time) int {
	months := MonthsBetween(MonthStart(birthDate), MonthStart(atDate))
	if atDate.Day() < birthDate.Day() {
		months--
	}
	return months
}

// FullRetirementAgeMonths returns the Social Security Full Retirement Age in months.
func FullRetirementAgeMonths(birthDate time.Time) int {
	birthYear := birthDate.Year()

	switch {
	case birthYear <= 1937:
		return 65 * 12
	case birthYear <= 1942:
		return 65*12 + (birthYear-1937)*2
	case birthYear <= 1954:
		return 66 * 12
	case birthYear <= 1959:
		return 66*12 + (birthYear-1954)*2
	default: // 1960 and later
		return 67 * 12
	}
}

// IsMedicareEligible checks if a person is eligible for Medicare (age 65+)
func IsMedicareEligible(birthDate, atDate time.Time) bool {
	return Age(birthDate, atDate) >= 65
}

// GetRMDAge returns the age when RMDs start for a given birth year (SECURE 2.0)
func GetRMDAge(birthYear int) int {
	switch {
	case birthYear <= 1950:
		return 72
	case birthYear <= 1959:
		return 73
	default: // 1960 and later
		return 75
	}
}

// MonthStart truncates a date to midnight UTC on the first of its month.
func MonthStart(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}

// AddMonths adds a specified number of months to a month start
func AddMonths(month time.Time, months int) time.Time {
	return MonthStart(month).AddDate(0, months, 0)
}

// MonthsBetween returns the number of calendar months from "from" to "to"; negative when to is earlier.
func MonthsBetween(from, to time.Time) int {
	return (to.Year()-from.Year())*12 + int(to.Month()) - int(from.Month())
}

// MonthsRemainingInYear counts the months from month through December inclusive.
func MonthsRemainingInYear(month time.Time) int {
	return 13 - int(month.Month())
}

// HeldMoreThanAYear reports whether something entered at entry has been held for more than one year at month.
func HeldMoreThanAYear(entry, month time.Time) bool {
	return entry.Before(MonthStart(month).AddDate(-1, 0, 0))
}
