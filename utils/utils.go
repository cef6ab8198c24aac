package utils

import (
	"context"
	"errors"
	"regexp"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type contextKey string

// UserIDKey is the context key the auth middleware stores the caller's
// user id under.
const UserIDKey contextKey = "userID"

// UsernameKey is the context key for the caller's display name.
const UsernameKey contextKey = "username"

// GetUserIDFromContext extracts the authenticated user id from ctx.
func GetUserIDFromContext(ctx context.Context) (primitive.ObjectID, error) {
	userID, ok := ctx.Value(UserIDKey).(primitive.ObjectID)
	if !ok {
		return primitive.NilObjectID, errors.New("user ID not found in context")
	}
	return userID, nil
}

// GetUsernameFromContext extracts the authenticated username from ctx.
func GetUsernameFromContext(ctx context.Context) (string, error) {
	username, ok := ctx.Value(UsernameKey).(string)
	if !ok || username == "" {
		return "", errors.New("username not found in context")
	}
	return username, nil
}

// Claims is the verified identity carried by a token.
type Claims struct {
	UserID        primitive.ObjectID
	Username      string
	EmailVerified bool
}

// ParseToken validates a JWT and extracts its identity claims.
func ParseToken(tokenString string, jwtSecret string) (*Claims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(jwtSecret), nil
	})
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token claims")
	}

	userIDStr, ok := claims["userId"].(string)
	if !ok {
		return nil, errors.New("user ID not found in token claims")
	}
	userID, err := primitive.ObjectIDFromHex(userIDStr)
	if err != nil {
		return nil, errors.New("invalid user ID format in token")
	}

	username, _ := claims["username"].(string)
	emailVerified, _ := claims["emailVerified"].(bool)

	return &Claims{UserID: userID, Username: username, EmailVerified: emailVerified}, nil
}

// GenerateJWT issues a signed token for the user, valid for 24 hours.
func GenerateJWT(userID primitive.ObjectID, username string, emailVerified bool, secret string) (string, error) {
	claims := jwt.MapClaims{
		"userId":        userID.Hex(),
		"username":      username,
		"emailVerified": emailVerified,
		"exp":           time.Now().Add(time.Hour * 24).Unix(),
		"iat":           time.Now().Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	tokenString, err := token.SignedString([]byte(secret))
	if err != nil {
		return "", errors.New("failed to sign token")
	}
	return tokenString, nil
}

var emailPattern = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

// IsValidEmail reports whether s looks like an email address.
func IsValidEmail(s string) bool {
	return emailPattern.MatchString(s)
}
