// Package i18n holds the API's user-facing messages. French is the default;
// English is served when the client asks for it.
package i18n

import (
	"net/http"

	"golang.org/x/text/language"
)

const (
	DefaultLanguage = "fr"
	English         = "en"
)

var matcher = language.NewMatcher([]language.Tag{language.French, language.English})

var catalog = map[string]map[string]string{
	"fr": {
		"registered":          "Utilisateur enregistré avec succès",
		"email_taken":         "Utilisateur déjà existant",
		"invalid_data":        "Données invalides",
		"invalid_credentials": "Identifiants incorrects",
		"internal_error":      "Erreur interne du serveur",
		"missing_token":       "Token manquant",
		"invalid_token":       "Token invalide",
		"uploaded":            "Fichier téléversé avec succès",
		"no_file":             "Aucun fichier reçu",
		"invalid_filename":    "Nom de fichier invalide",
		"unsupported_format":  "Format de fichier non supporté",
		"empty_file":          "Fichier vide",
		"too_large":           "Fichier trop volumineux",
		"invoice_not_found":   "Facture introuvable",
		"not_found":           "Ressource introuvable",
		"required":            "Requis",
		"invalid_email":       "Adresse e-mail invalide",
		"too_long":            "Trop long",
	},
	"en": {
		"registered":          "User registered successfully",
		"email_taken":         "User already exists",
		"invalid_data":        "Invalid data",
		"invalid_credentials": "Invalid credentials",
		"internal_error":      "Internal server error",
		"missing_token":       "Missing token",
		"invalid_token":       "Invalid token",
		"uploaded":            "File uploaded successfully",
		"no_file":             "No file received",
		"invalid_filename":    "Invalid file name",
		"unsupported_format":  "Unsupported file format",
		"empty_file":          "Empty file",
		"too_large":           "File too large",
		"invoice_not_found":   "Invoice not found",
		"not_found":           "Resource not found",
		"required":            "Required",
		"invalid_email":       "Invalid email address",
		"too_long":            "Too long",
	},
}

// DetectLanguage picks "en" or "fr" from an Accept-Language header; anything else is "fr".
func DetectLanguage(acceptLanguage string) string {
	if acceptLanguage == "" {
		return DefaultLanguage
	}
	tags, _, err := language.ParseAcceptLanguage(acceptLanguage)
	if err != nil || len(tags) == 0 {
		return DefaultLanguage
	}
	tag, _, confidence := matcher.Match(tags...)
	if confidence == language.No {
		return DefaultLanguage
	}
	base, _ := tag.Base()
	if base.String() == English {
		return English
	}
	return DefaultLanguage
}

// FromRequest detects the language of r.
func FromRequest(r *http.Request) string {
	return DetectLanguage(r.Header.Get("Accept-Language"))
}

// T translates code. Unknown languages fall back to French, unknown codes to the code itself.
func T(lang, code string) string {
	if msg, ok := catalog[lang][code]; ok {
		return msg
	}
	if msg, ok := catalog[DefaultLanguage][code]; ok {
		return msg
	}
	return code
}
