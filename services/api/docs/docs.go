// Package docs registers the OpenAPI document served under /swagger.
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "contact": {
            "name": "API Support"
        },
        "license": {
            "name": "Apache 2.0",
            "url": "http://www.apache.org/licenses/LICENSE-2.0.html"
        },
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/health": {
            "get": {
                "produces": ["text/plain"],
                "tags": ["health"],
                "summary": "Health check",
                "responses": {"200": {"description": "OK", "schema": {"type": "string"}}}
            }
        },
        "/posts": {
            "get": {
                "produces": ["application/json"],
                "tags": ["posts"],
                "summary": "List posts",
                "parameters": [
                    {"type": "string", "description": "Author id", "name": "userId", "in": "query"},
                    {"type": "string", "description": "Tag", "name": "tag", "in": "query"},
                    {"type": "integer", "description": "Page size (default 20, max 100)", "name": "limit", "in": "query"},
                    {"type": "integer", "description": "Offset", "name": "offset", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/entity.Post"}}}
                }
            },
            "post": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["posts"],
                "summary": "Create a post from already uploaded media",
                "parameters": [
                    {"description": "Post", "name": "post", "in": "body", "required": true, "schema": {"$ref": "#/definitions/entity.NewPost"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/entity.Post"}},
                    "400": {"description": "Bad Request"},
                    "401": {"description": "Unauthorized"}
                }
            }
        },
        "/posts/media": {
            "post": {
                "security": [{"BearerAuth": []}],
                "consumes": ["multipart/form-data"],
                "produces": ["application/json"],
                "tags": ["posts"],
                "summary": "Upload media and create a post",
                "parameters": [
                    {"type": "file", "description": "Image or video file, repeatable", "name": "media", "in": "formData", "required": true},
                    {"type": "string", "description": "Caption", "name": "caption", "in": "formData"},
                    {"type": "string", "description": "Tag (default General)", "name": "tag", "in": "formData"}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/entity.Post"}},
                    "400": {"description": "Bad Request"},
                    "401": {"description": "Unauthorized"},
                    "500": {"description": "Internal Server Error"}
                }
            }
        },
        "/posts/{id}": {
            "get": {
                "produces": ["application/json"],
                "tags": ["posts"],
                "summary": "Get post by ID",
                "parameters": [{"type": "string", "description": "Post ID", "name": "id", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/entity.Post"}},
                    "404": {"description": "Not Found"}
                }
            }
        },
        "/users/current": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["users"],
                "summary": "Current user",
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/entity.User"}}}
            },
            "patch": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["users"],
                "summary": "Update current user",
                "parameters": [
                    {"description": "Fields to change", "name": "user", "in": "body", "required": true, "schema": {"$ref": "#/definitions/entity.UserUpdate"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/entity.User"}},
                    "400": {"description": "Bad Request"}
                }
            }
        },
        "/users/current/avatar": {
            "post": {
                "security": [{"BearerAuth": []}],
                "consumes": ["multipart/form-data"],
                "produces": ["application/json"],
                "tags": ["users"],
                "summary": "Upload avatar",
                "parameters": [{"type": "file", "description": "Image file (field avatar or image)", "name": "avatar", "in": "formData", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/entity.User"}},
                    "400": {"description": "Bad Request"}
                }
            }
        },
        "/users/search": {
            "get": {
                "produces": ["application/json"],
                "tags": ["users"],
                "summary": "Search users by username or display name",
                "parameters": [
                    {"type": "string", "description": "Search text", "name": "q", "in": "query"},
                    {"type": "integer", "description": "Max results", "name": "limit", "in": "query"}
                ],
                "responses": {"200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/entity.User"}}}}
            }
        },
        "/users/new": {
            "get": {
                "produces": ["application/json"],
                "tags": ["users"],
                "summary": "Newest users",
                "parameters": [{"type": "integer", "description": "Max results", "name": "limit", "in": "query"}],
                "responses": {"200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/entity.User"}}}}
            }
        },
        "/users/tag/{tag}": {
            "get": {
                "produces": ["application/json"],
                "tags": ["users"],
                "summary": "Users who posted with a tag",
                "parameters": [{"type": "string", "description": "Tag", "name": "tag", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/entity.User"}}}}
            }
        },
        "/users/{id}": {
            "get": {
                "produces": ["application/json"],
                "tags": ["users"],
                "summary": "Get user by ID",
                "parameters": [{"type": "string", "description": "User ID", "name": "id", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/entity.User"}},
                    "404": {"description": "Not Found"}
                }
            }
        },
        "/users/{id}/profile": {
            "get": {
                "produces": ["application/json"],
                "tags": ["users"],
                "summary": "Profile with post and follow counts",
                "parameters": [{"type": "string", "description": "Username", "name": "id", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/entity.UserProfile"}},
                    "404": {"description": "Not Found"}
                }
            }
        },
        "/users/{id}/following": {
            "get": {
                "produces": ["application/json"],
                "tags": ["follows"],
                "summary": "Users this user follows",
                "parameters": [{"type": "string", "description": "User ID", "name": "id", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/entity.User"}}}}
            }
        },
        "/users/{id}/followers": {
            "get": {
                "produces": ["application/json"],
                "tags": ["follows"],
                "summary": "Users following this user",
                "parameters": [{"type": "string", "description": "User ID", "name": "id", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/entity.User"}}}}
            }
        },
        "/users/{id}/follow": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["follows"],
                "summary": "Whether the caller follows a user",
                "parameters": [{"type": "string", "description": "User ID", "name": "id", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK"}}
            },
            "post": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["follows"],
                "summary": "Follow a user",
                "parameters": [{"type": "string", "description": "User ID", "name": "id", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK"}, "400": {"description": "Bad Request"}, "404": {"description": "Not Found"}}
            },
            "delete": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["follows"],
                "summary": "Unfollow a user",
                "parameters": [{"type": "string", "description": "User ID", "name": "id", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK"}}
            }
        }
    },
    "definitions": {
        "entity.MediaItem": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "url": {"type": "string"},
                "type": {"type": "string", "enum": ["image", "video"]},
                "order": {"type": "integer"}
            }
        },
        "entity.NewMediaItem": {
            "type": "object",
            "properties": {
                "url": {"type": "string"},
                "type": {"type": "string", "enum": ["image", "video"]},
                "order": {"type": "integer"}
            }
        },
        "entity.NewPost": {
            "type": "object",
            "properties": {
                "media": {"type": "array", "items": {"$ref": "#/definitions/entity.NewMediaItem"}},
                "caption": {"type": "string"},
                "tag": {"type": "string"}
            }
        },
        "entity.Post": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "userId": {"type": "string"},
                "media": {"type": "array", "items": {"$ref": "#/definitions/entity.MediaItem"}},
                "imageUrl": {"type": "string"},
                "caption": {"type": "string"},
                "tag": {"type": "string"},
                "likesCount": {"type": "integer"},
                "commentsCount": {"type": "integer"},
                "authorName": {"type": "string"},
                "authorUsername": {"type": "string"},
                "authorAvatarUrl": {"type": "string"},
                "createdAt": {"type": "string"}
            }
        },
        "entity.User": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "username": {"type": "string"},
                "displayName": {"type": "string"},
                "avatarUrl": {"type": "string"},
                "bio": {"type": "string"},
                "createdAt": {"type": "string"}
            }
        },
        "entity.UserProfile": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "username": {"type": "string"},
                "displayName": {"type": "string"},
                "avatarUrl": {"type": "string"},
                "bio": {"type": "string"},
                "createdAt": {"type": "string"},
                "postCount": {"type": "integer"},
                "followerCount": {"type": "integer"},
                "followingCount": {"type": "integer"}
            }
        },
        "entity.UserUpdate": {
            "type": "object",
            "properties": {
                "username": {"type": "string"},
                "displayName": {"type": "string"},
                "bio": {"type": "string"}
            }
        }
    },
    "securityDefinitions": {
        "BearerAuth": {
            "description": "Type \"Bearer\" followed by a space and the identity provider's token.",
            "type": "apiKey",
            "name": "Authorization",
            "in": "header"
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "localhost:3000",
	BasePath:         "/api",
	Schemes:          []string{},
	Title:            "FrameFeed API",
	Description:      "Photo and video posts, profiles, follows and media streaming.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
