package common

// AnonymousAuthor is stored as the author of content created without an
// authenticated actor.
const AnonymousAuthor = "anonymous"

// AccessTokenHeaderName is the HTTP header carrying the bearer access token.
const AccessTokenHeaderName = "Authorization"

// DefaultNoteCategory is assigned to notes created without a category.
const DefaultNoteCategory = "uncategorized"
