// Package constants provides shared constants for the holidays application
package constants

// AppName is the name used for logging, desktop notifications and the HTTP surface
const AppName = "Holidays"

// DefaultLanguage is the calendar language used when none is configured
const DefaultLanguage = "en"

// DefaultIcon is the icon identifier attached to every published result
const DefaultIcon = "holiday"

// DefaultSettingsTarget is the click target published when no calendar is selected
const DefaultSettingsTarget = "holidays://settings"
