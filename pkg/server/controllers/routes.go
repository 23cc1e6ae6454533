/* Copyright 2025 Marginalia Authors
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package controllers

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/marginalia/marginalia/pkg/server/app"
	mw "github.com/marginalia/marginalia/pkg/server/middleware"
	"github.com/pkg/errors"
)

// Route represents a single route
type Route struct {
	Method    string
	Pattern   string
	Handler   http.HandlerFunc
	RateLimit bool
}

// RouteConfig is the configuration for routes
type RouteConfig struct {
	Controllers *Controllers
	APIRoutes   []Route
}

// NewAPIRoutes returns a new api routes
func NewAPIRoutes(a *app.App, c *Controllers) []Route {
	auth := func(next http.HandlerFunc) http.HandlerFunc {
		return mw.Auth(a.DB, next, app.TokenTypeAPI)
	}

	ret := []Route{
		{"POST", "/v1/signin", c.Users.V1Login, true},
		{"POST", "/v1/signout", c.Users.V1Logout, true},
		{"OPTIONS", "/v1/signout", c.Users.logoutOptions, true},
		{"GET", "/v1/me", auth(c.Users.Me), true},
		{"POST", "/v1/tokens", auth(c.Users.CreateToken), true},

		{"POST", "/v1/sync", auth(c.Sync.V1Upload), false},

		{"GET", "/v1/books", auth(c.Books.V1Index), true},
		{"GET", "/v1/books/recent", auth(c.Books.V1Recent), true},
		{"GET", "/v1/books/{bookID}", auth(c.Books.V1Show), true},
		{"PATCH", "/v1/books/{bookID}", auth(c.Books.V1Update), true},
		{"DELETE", "/v1/books/{bookID}", auth(c.Books.V1Delete), true},
		{"POST", "/v1/books/{bookID}/view", auth(c.Books.V1View), true},
		{"GET", "/v1/books/{bookID}/chapters", auth(c.Books.V1Chapters), true},
		{"GET", "/v1/books/{bookID}/highlights", auth(c.Books.V1Highlights), true},
		{"DELETE", "/v1/books/{bookID}/highlights", auth(c.Highlights.V1Delete), true},

		{"GET", "/v1/highlights/search", auth(c.Highlights.V1Search), true},
		{"PATCH", "/v1/highlights/{highlightID}", auth(c.Highlights.V1Update), true},
		{"GET", "/v1/highlights/{highlightID}/tags", auth(c.Highlights.V1Tags), true},
		{"PUT", "/v1/highlights/{highlightID}/tags", auth(c.Highlights.V1UpdateTags), true},

		{"GET", "/v1/tags", auth(c.Tags.V1Index), true},
		{"POST", "/v1/tags", auth(c.Tags.V1Create), true},
		{"DELETE", "/v1/tags/{tagID}", auth(c.Tags.V1Delete), true},
		{"GET", "/v1/books/{bookID}/tags", auth(c.Tags.V1BookTags), true},
		{"PUT", "/v1/books/{bookID}/tags", auth(c.Tags.V1UpdateBookTags), true},
		{"GET", "/v1/books/{bookID}/highlight-tags", auth(c.Tags.V1HighlightTags), true},
		{"POST", "/v1/books/{bookID}/highlight-tags", auth(c.Tags.V1CreateHighlightTag), true},
		{"GET", "/v1/books/{bookID}/highlight-tag-groups", auth(c.Tags.V1TagGroups), true},
		{"POST", "/v1/books/{bookID}/highlight-tag-groups", auth(c.Tags.V1CreateTagGroup), true},
		{"DELETE", "/v1/books/{bookID}/highlight-tag-groups/{groupID}", auth(c.Tags.V1DeleteTagGroup), true},

		{"GET", "/v1/books/{bookID}/bookmarks", auth(c.Bookmarks.V1Index), true},
		{"POST", "/v1/books/{bookID}/bookmarks", auth(c.Bookmarks.V1Create), true},
		{"DELETE", "/v1/bookmarks/{bookmarkID}", auth(c.Bookmarks.V1Delete), true},
	}

	if !a.DisableRegistration {
		ret = append(ret, Route{"POST", "/v1/register", c.Users.V1Register, true})
	}

	return ret
}

func registerRoutes(router *mux.Router, wrapper mw.Middleware, app *app.App, routes []Route) {
	for _, route := range routes {
		wrappedHandler := wrapper(route.Handler, app, route.RateLimit)

		router.
			Handle(route.Pattern, wrappedHandler).
			Methods(route.Method)
	}
}

// NewRouter creates and returns a new router
func NewRouter(app *app.App, rc RouteConfig) (http.Handler, error) {
	if err := app.Validate(); err != nil {
		return nil, errors.Wrap(err, "validating the app parameters")
	}

	router := mux.NewRouter().StrictSlash(true)

	apiRouter := router.PathPrefix("/api").Subrouter()
	registerRoutes(apiRouter, mw.APIMw, app, rc.APIRoutes)

	router.HandleFunc("/health", rc.Controllers.Health.Index).Methods("GET")

	router.HandleFunc("/robots.txt", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("User-agent: *\nAllow: /"))
	})

	return mw.Global(router), nil
}
