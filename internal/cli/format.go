// Package cli provides the command-line interface for the trading application.
package cli

import (
	"fmt"
	"math"
	"strings"
	"time"
)

// FormatIndianCurrency formats a number in Indian currency format (lakhs, crores).
func FormatIndianCurrency(amount float64) string {
	negative := amount < 0
	if negative {
		amount = -amount
	}

	str := fmt.Sprintf("%.2f", amount)
	parts := strings.Split(str, ".")
	intPart := parts[0]
	decPart := parts[1]

	result := "₹" + formatIndianNumber(intPart) + "." + decPart
	if negative {
		result = "-" + result
	}
	return result
}

// formatIndianNumber formats an integer string in Indian numbering system.
// Indian system: 1,00,00,000 (1 crore) vs Western: 10,000,000
func formatIndianNumber(s string) string {
	n := len(s)
	if n <= 3 {
		return s
	}

	// First group of 3 from right (hundreds)
	result := s[n-3:]
	s = s[:n-3]

	// Then groups of 2 (thousands, lakhs, crores)
	for len(s) > 0 {
		if len(s) >= 2 {
			result = s[len(s)-2:] + "," + result
			s = s[:len(s)-2]
		} else {
			result = s + "," + result
			s = ""
		}
	}

	return result
}

// FormatPercent formats a percentage with sign.
func FormatPercent(value float64) string {
	sign := ""
	if value > 0 {
		sign = "+"
	}
	return fmt.Sprintf("%s%.2f%%", sign, value)
}

// FormatPnL formats P&L with sign.
func FormatPnL(pnl float64) string {
	formatted := FormatIndianCurrency(pnl)
	if pnl > 0 {
		return "+" + formatted
	}
	return formatted
}

// FormatLakhs formats a number in lakhs.
func FormatLakhs(amount float64) string {
	lakhs := amount / 100000
	if lakhs < 0 {
		return fmt.Sprintf("-%.2f L", -lakhs)
	}
	return fmt.Sprintf("%.2f L", lakhs)
}

// FormatCrores formats a number in crores.
func FormatCrores(amount float64) string {
	crores := amount / 10000000
	if crores < 0 {
		return fmt.Sprintf("-%.2f Cr", -crores)
	}
	return fmt.Sprintf("%.2f Cr", crores)
}

// FormatCompact formats a number in compact form (L/Cr).
func FormatCompact(amount float64) string {
	absAmount := math.Abs(amount)

	if absAmount >= 10000000 { // 1 crore
		return FormatCrores(amount)
	} else if absAmount >= 100000 { // 1 lakh
		return FormatLakhs(amount)
	}
	return FormatIndianCurrency(amount)
}

// FormatConfidence formats a [0, 1] confidence as a percentage.
func FormatConfidence(conf float64) string {
	return fmt.Sprintf("%.0f%%", conf*100)
}

// FormatTime formats a time in IST.
func FormatTime(t time.Time) string {
	ist, _ := time.LoadLocation("Asia/Kolkata")
	return t.In(ist).Format("15:04:05")
}

// FormatDateTime formats a datetime in IST.
func FormatDateTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	ist, _ := time.LoadLocation("Asia/Kolkata")
	return t.In(ist).Format("02-Jan-2006 15:04:05")
}

// FormatDuration formats a duration in human-readable form.
func FormatDuration(d time.Duration) string {
	if d < time.Minute {
		return fmt.Sprintf("%ds", int(d.Seconds()))
	} else if d < time.Hour {
		return fmt.Sprintf("%dm %ds", int(d.Minutes()), int(d.Seconds())%60)
	} else if d < 24*time.Hour {
		return fmt.Sprintf("%dh %dm", int(d.Hours()), int(d.Minutes())%60)
	}
	days := int(d.Hours()) / 24
	hours := int(d.Hours()) % 24
	return fmt.Sprintf("%dd %dh", days, hours)
}

// TruncateString truncates a string to max length with ellipsis.
func TruncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}
