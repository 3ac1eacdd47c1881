package analytics

// categoryTranslations maps Portuguese product category codes to English labels.
// It is read-only after package initialization.
var categoryTranslations = map[string]string{
	"beleza_saude":                     "health_beauty",
	"informatica_acessorios":           "computers_accessories",
	"automotivo":                       "automotive",
	"cama_mesa_banho":                  "bed_bath_table",
	"moveis_decoracao":                 "furniture_decor",
	"esporte_lazer":                    "sports_leisure",
	"perfumaria":                       "perfumery",
	"bebes":                            "baby",
	"utilidades_domesticas":            "home_appliances",
	"relogios_presentes":               "watches_gifts",
	"telefonia":                        "telephony",
	"papelaria":                        "stationery",
	"fashion_bolsas_e_acessorios":      "fashion_bags_accessories",
	"construcao_ferramentas_seguranca": "construction_tools_safety",
	"livros_interesse_geral":           "books_general_interest",
	"alimentos":                        "food",
}

// TranslateCategory returns the English label of a category code.
// Unknown codes, including labels that are already English, are returned unchanged.
func TranslateCategory(name string) string {
	if translated, ok := categoryTranslations[name]; ok {
		return translated
	}
	return name
}

// CategoryTranslations returns a copy of the translation dictionary
func CategoryTranslations() map[string]string {
	out := make(map[string]string, len(categoryTranslations))
	for k, v := range categoryTranslations {
		out[k] = v
	}
	return out
}
