package httpapi

import "net/http"

func registerSystemRoutes(mux *http.ServeMux, handler *Handler, swaggerEnabled bool) {
	mux.HandleFunc("GET /healthz", handler.Healthz)
	mux.Handle("GET /metrics", metricsHandler())
	if !swaggerEnabled {
		return
	}

	mux.HandleFunc("GET /openapi.yaml", handler.OpenAPIDocument)
	mux.HandleFunc("GET /docs", handler.APIDocs)
	mux.HandleFunc("GET /docs/", handler.APIDocs)
}

func registerPublicRoutes(mux *http.ServeMux, handler *Handler) {
	mux.HandleFunc("GET /v1/tournaments", handler.ListTournaments)
	mux.HandleFunc("GET /v1/tournaments/{tournamentID}", handler.GetTournament)
	mux.HandleFunc("GET /v1/tournaments/{tournamentID}/scoring-rules", handler.ListScoringRules)
	mux.HandleFunc("GET /v1/tournaments/{tournamentID}/heats", handler.ListHeats)
	mux.HandleFunc("GET /v1/tournaments/{tournamentID}/leaderboard", handler.GetLeaderboard)
	mux.HandleFunc("GET /v1/heats/{heatID}/allocations", handler.ListAllocations)
	mux.HandleFunc("GET /v1/heats/{heatID}/results", handler.ListHeatResults)
	mux.HandleFunc("GET /v1/rankings/annual", handler.GetAnnualRanking)
	mux.HandleFunc("GET /v1/rankings/movements", handler.GetMovementRanking)
	mux.HandleFunc("GET /v1/rankings/snapshots/{kind}", handler.GetRankingSnapshot)
}

func registerAuthorizedRoutes(mux *http.ServeMux, handler *Handler, verifier TokenVerifier) {
	registerAuthorizedTournamentRoutes(mux, handler, verifier)
	registerAuthorizedRegistrationRoutes(mux, handler, verifier)
	registerAuthorizedHeatRoutes(mux, handler, verifier)
	registerAuthorizedResultRoutes(mux, handler, verifier)

	mux.Handle("POST /v1/personal-records", RequireAuth(verifier, http.HandlerFunc(handler.RecordPersonalRecord)))
}

func registerAuthorizedTournamentRoutes(mux *http.ServeMux, handler *Handler, verifier TokenVerifier) {
	mux.Handle("POST /v1/tournaments", RequireAuth(verifier, http.HandlerFunc(handler.CreateTournament)))
	mux.Handle("PATCH /v1/tournaments/{tournamentID}", RequireAuth(verifier, http.HandlerFunc(handler.UpdateTournament)))
	mux.Handle("PUT /v1/tournaments/{tournamentID}/scoring-rules", RequireAuth(verifier, http.HandlerFunc(handler.SetScoringRules)))
	mux.Handle("POST /v1/tournaments/{tournamentID}/rescore", RequireAuth(verifier, http.HandlerFunc(handler.RescoreTournament)))
	mux.Handle("POST /v1/tournaments/{tournamentID}/finalize", RequireAuth(verifier, http.HandlerFunc(handler.FinalizeTournament)))
}

func registerAuthorizedRegistrationRoutes(mux *http.ServeMux, handler *Handler, verifier TokenVerifier) {
	mux.Handle("POST /v1/tournaments/{tournamentID}/registrations", RequireAuth(verifier, http.HandlerFunc(handler.Register)))
	mux.Handle("GET /v1/tournaments/{tournamentID}/registrations", RequireAuth(verifier, http.HandlerFunc(handler.ListRegistrations)))
	mux.Handle("POST /v1/registrations/{registrationID}/approve", RequireAuth(verifier, http.HandlerFunc(handler.ApproveRegistration)))
	mux.Handle("POST /v1/registrations/{registrationID}/reject", RequireAuth(verifier, http.HandlerFunc(handler.RejectRegistration)))
	mux.Handle("GET /v1/registrations/{registrationID}/certificate", RequireAuth(verifier, http.HandlerFunc(handler.GetCertificateEligibility)))
}

func registerAuthorizedHeatRoutes(mux *http.ServeMux, handler *Handler, verifier TokenVerifier) {
	mux.Handle("POST /v1/tournaments/{tournamentID}/heats", RequireAuth(verifier, http.HandlerFunc(handler.CreateHeat)))
	mux.Handle("PATCH /v1/heats/{heatID}", RequireAuth(verifier, http.HandlerFunc(handler.UpdateHeatCapacity)))
	mux.Handle("POST /v1/heats/{heatID}/allocations", RequireAuth(verifier, http.HandlerFunc(handler.AllocateHeat)))
	mux.Handle("DELETE /v1/heats/{heatID}/allocations/{registrationID}", RequireAuth(verifier, http.HandlerFunc(handler.DeallocateHeat)))
}

func registerAuthorizedResultRoutes(mux *http.ServeMux, handler *Handler, verifier TokenVerifier) {
	mux.Handle("PUT /v1/allocations/{allocationID}/result", RequireAuth(verifier, http.HandlerFunc(handler.RecordResult)))
	mux.Handle("DELETE /v1/allocations/{allocationID}/result", RequireAuth(verifier, http.HandlerFunc(handler.DeleteResult)))
}

func registerInternalRoutes(mux *http.ServeMux, handler *Handler, internalJobToken string) {
	mux.Handle("POST /v1/internal/payments/settle", RequireInternalJobToken(internalJobToken, http.HandlerFunc(handler.SettlePayment)))
	mux.Handle("POST /v1/internal/jobs/refresh-rankings", RequireInternalJobToken(internalJobToken, http.HandlerFunc(handler.RunRankingRefreshJob)))
}
