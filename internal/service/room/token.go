package room

import (
	"errors"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

type hostClaims struct {
	RoomId   string
	HostName string
}

// generateHostToken mints a fresh host token. The jti makes every mint
// unique, so the token effectively rotates on room creation.
func (s service) generateHostToken(roomId, hostName string) (string, error) {
	claims := jwt.MapClaims{
		"room_id":   roomId,
		"host_name": hostName,
		"jti":       uuid.NewString(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	return token.SignedString([]byte(s.secret))
}

func (s service) parseHostToken(tokenString string) (*hostClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, jwt.MapClaims{}, func(token *jwt.Token) (interface{}, error) {
		return []byte(s.secret), nil
	})
	if err != nil {
		return nil, err
	}

	if !token.Valid {
		return nil, errors.New("invalid token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, errors.New("invalid token")
	}

	roomId, _ := claims["room_id"].(string)
	hostName, _ := claims["host_name"].(string)

	return &hostClaims{
		RoomId:   roomId,
		HostName: hostName,
	}, nil
}

// isValidHostToken reports whether the presented token proves host identity
// for the room: the signature must verify and the token must match the one
// stored at creation.
func (s service) isValidHostToken(tokenString, roomId, storedToken string) bool {
	if tokenString == "" || tokenString != storedToken {
		return false
	}

	claims, err := s.parseHostToken(tokenString)
	if err != nil {
		return false
	}

	return claims.RoomId == roomId
}
