// Package i18n holds the pt/en string table. Components receive a
// Translator explicitly instead of reaching for shared state.
package i18n

type Language string

const (
	PT Language = "pt"
	EN Language = "en"
)

// Translator looks a key up for one language. Unknown keys come back unchanged.
type Translator func(key string) string

var Translations = map[string]map[Language]string{
	"appName":           {PT: "Roles SP", EN: "SP Hangouts"},
	"searchPlaceholder": {PT: "Buscar por nome ou bairro...", EN: "Search by name or neighborhood..."},
	"latestAdditions":   {PT: "Últimos adicionados", EN: "Latest Additions"},
	"byNeighborhood":    {PT: "Por bairro", EN: "By Neighborhood"},
	"favorites":         {PT: "Favoritos", EN: "Favorites"},
	"settings":          {PT: "Configurações", EN: "Settings"},
	"myFavorites":       {PT: "Meus Favoritos", EN: "My Favorites"},
	"noFavorites":       {PT: "Você ainda não favoritou nenhum lugar.", EN: "You haven't favorited any places yet."},
	"language":          {PT: "Idioma", EN: "Language"},
	"adminAccess":       {PT: "Acesso de Administrador", EN: "Admin Access"},
	"enterPin":          {PT: "Digite o PIN", EN: "Enter PIN"},
	"login":             {PT: "Entrar", EN: "Login"},
	"logout":            {PT: "Sair", EN: "Logout"},
	"wrongPin":          {PT: "PIN incorreto", EN: "Incorrect PIN"},
	"loggedIn":          {PT: "Modo admin ativado", EN: "Admin mode enabled"},
	"tag_boteco":        {PT: "Boteco", EN: "Pub"},
	"tag_beer600":       {PT: "Cerveja 600ml", EN: "600ml Beer"},
	"tag_club":          {PT: "Balada", EN: "Clubbing"},
	"tag_goodFood":      {PT: "Comida Boa", EN: "Good Food"},
	"tag_date":          {PT: "Date", EN: "Date Spot"},
	"tag_birthday":      {PT: "Aniversário", EN: "Birthday"},
	"tag_gayFriendly":   {PT: "Gay Friendly", EN: "Gay Friendly"},
	"tag_dancing":       {PT: "Dançar", EN: "Dancing"},
	"details":           {PT: "Detalhes", EN: "Details"},
	"openInstagram":     {PT: "Abrir Instagram", EN: "Open Instagram"},
	"viewOnMaps":        {PT: "Ver no Maps", EN: "View on Maps"},
	"routeOnMaps":       {PT: "Rota no Maps", EN: "Route on Maps"},
	"distance":          {PT: "Distância", EN: "Distance"},
	"calculating":       {PT: "Calculando...", EN: "Calculating..."},
	"needsReview":       {PT: "Precisa de revisão", EN: "Needs Review"},
	"back":              {PT: "Voltar", EN: "Back"},
	"nearbyPlaces":      {PT: "Perto de Você", EN: "Nearby You"},
	"gettingLocation":   {PT: "Obtendo sua localização...", EN: "Getting your location..."},
	"locationError":     {PT: "Não foi possível obter a localização. Mostrando os mais recentes.", EN: "Could not get location. Showing latest additions."},
	"loading":           {PT: "Carregando Roles...", EN: "Loading Roles..."},
	"loadError":         {PT: "Falha ao carregar os dados da planilha. Verifique o link e o formato.", EN: "Failed to load data from the spreadsheet. Please check the link and format."},
}

// ParseLanguage maps anything unknown to PT.
func ParseLanguage(s string) Language {
	if Language(s) == EN {
		return EN
	}
	return PT
}

func For(lang Language) Translator {
	return func(key string) string {
		entry, ok := Translations[key]
		if !ok {
			return key
		}
		if s, ok := entry[lang]; ok {
			return s
		}
		return entry[PT]
	}
}
