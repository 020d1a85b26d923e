package translations

// GetEnglishTranslations returns all English text strings
func GetEnglishTranslations() Translations {
	return Translations{
		SuccessTitle:   "Success",
		ErrorTitle:     "Error",
		AttentionTitle: "Attention",
		AuthErrorTitle: "Authentication error",
		NetworkTitle:   "Connection error",
		SessionExpired: "Session expired",

		TokenNotFound:      "Authentication token not found.",
		InvalidCredentials: "Invalid email or password",
		LoggedIn:           "Logged in successfully!",
		SignedUp:           "Account created successfully!",
		LoggedOut:          "You have been logged out.",
		AccountDeleted:     "Your account was deleted.",
		AccountDeleteError: "Error deleting the account.",

		PriceAdded:     "Fuel price added!",
		InvalidPrice:   "Invalid price.",
		MissingFields:  "All fields are required.",
		ServerFailure:  "The server is failing, try again later.",
		ServerNotFound: "Could not connect to the server.",
		ShowingCached:  "Showing the last saved prices.",

		LocationPermission: "Location permission is required to load the address.",
		LocationFailure:    "Failed to get the location.",
		AddressFailure:     "Could not load the address.",
	}
}
