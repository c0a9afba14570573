package client

import "github.com/josealejferFB/krizo-backend/pkg/api"

func apiWorker(name string, services ...string) api.ConfigureServicesBody {
	return api.ConfigureServicesBody{DisplayName: name, Services: services}
}
