package translations

// GetPortugueseTranslations returns all Portuguese text strings
func GetPortugueseTranslations() Translations {
	return Translations{
		SuccessTitle:   "Sucesso",
		ErrorTitle:     "Erro",
		AttentionTitle: "Atenção",
		AuthErrorTitle: "Erro de autenticação",
		NetworkTitle:   "Erro de conexão",
		SessionExpired: "Sessão Expirada",

		TokenNotFound:      "Token de autenticação não encontrado.",
		InvalidCredentials: "Email ou senha invalidos",
		LoggedIn:           "Login realizado com sucesso!",
		SignedUp:           "Conta criada com sucesso!",
		LoggedOut:          "Você foi desconectado com sucesso.",
		AccountDeleted:     "Sua conta foi excluída com sucesso!",
		AccountDeleteError: "Erro ao excluir a conta.",

		PriceAdded:     "Preço de combustivel adicionada com sucesso!",
		InvalidPrice:   "Preço inválido.",
		MissingFields:  "Obrigatório preencher todos os campos.",
		ServerFailure:  "Estamos enfrentando falha no servidor!",
		ServerNotFound: "Não foi possível conectar ao servidor.",
		ShowingCached:  "Mostrando os últimos preços salvos.",

		LocationPermission: "Permissão de localização necessária para carregar o endereço.",
		LocationFailure:    "Falha ao capturar a localização.",
		AddressFailure:     "Não foi possível carregar o endereço.",
	}
}
