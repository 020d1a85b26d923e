package translations

// Translations contains the user facing notice texts
type Translations struct {
	// Notice titles
	SuccessTitle   string
	ErrorTitle     string
	AttentionTitle string
	AuthErrorTitle string
	NetworkTitle   string
	SessionExpired string

	// Authentication
	TokenNotFound      string
	InvalidCredentials string
	LoggedIn           string
	SignedUp           string
	LoggedOut          string
	AccountDeleted     string
	AccountDeleteError string

	// Prices
	PriceAdded     string
	InvalidPrice   string
	MissingFields  string
	ServerFailure  string
	ServerNotFound string
	ShowingCached  string

	// Location
	LocationPermission string
	LocationFailure    string
	AddressFailure     string
}

// GetTranslations returns translations for the specified language
func GetTranslations(lang string) Translations {
	switch GetLanguage(lang) {
	case "en":
		return GetEnglishTranslations()
	default:
		return GetPortugueseTranslations()
	}
}

// GetLanguage normalizes a language name, defaults to Portuguese
func GetLanguage(lang string) string {
	switch lang {
	case "en", "english", "en_US", "en_GB":
		return "en"
	default:
		return "pt"
	}
}
