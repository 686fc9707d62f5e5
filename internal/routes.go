package internal

import (
	"net/http"

	"fpledger/internal/controllers"
	"fpledger/internal/providers"
)

func InitRoutes(apiController *controllers.ApiController) providers.RouterProviderInterface {
	routers := providers.NewRouterProvider()

	routers.Post("/transactions", http.HandlerFunc(apiController.RecordTransaction))
	routers.Get("/fingerprints", http.HandlerFunc(apiController.ListFingerprints))
	routers.Get("/fingerprints/hash/{hash}", http.HandlerFunc(apiController.GetByHash))
	routers.Get("/fingerprints/id/{fingerprintId}", http.HandlerFunc(apiController.GetByID))
	return routers
}
