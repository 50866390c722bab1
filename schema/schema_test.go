package schema_test

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/tessera-id/tessera/schema"
)

func TestValidateAppliesDefaults(t *testing.T) {
	obj := schema.Object{
		"expires_in_millis": schema.Number().Max(31_708_800_000).Default(float64(31_536_000_000)),
		"is_impersonation":  schema.Bool().Default(false),
	}

	out, err := obj.Validate(map[string]any{})
	require.NoError(t, err)
	require.Equal(t, float64(31_536_000_000), out["expires_in_millis"])
	require.Equal(t, false, out["is_impersonation"])
}

func TestValidateRejectsAboveMax(t *testing.T) {
	obj := schema.Object{
		"expires_in_millis": schema.Number().Max(31_708_800_000),
	}

	_, err := obj.Validate(map[string]any{"expires_in_millis": float64(31_708_800_001)})
	require.Error(t, err)

	verr, ok := err.(*schema.ValidationError)
	require.True(t, ok)
	require.Contains(t, verr.Fields, "expires_in_millis")
}

func TestValidateCollectsEveryViolation(t *testing.T) {
	obj := schema.Object{
		"user_id": schema.UUID().Required(),
		"count":   schema.Number().Required(),
		"kind":    schema.Enum("a", "b").Required(),
	}

	_, err := obj.Validate(map[string]any{
		"user_id": "not-a-uuid",
		"kind":    "c",
	})
	require.Error(t, err)

	verr, ok := err.(*schema.ValidationError)
	require.True(t, ok)
	require.Len(t, verr.Fields, 3)
	require.Contains(t, verr.Fields["user_id"], "uuid")
	require.Equal(t, "is required", verr.Fields["count"])
	require.Contains(t, verr.Fields["kind"], "one of")
}

func TestValidateUUIDLiterals(t *testing.T) {
	obj := schema.Object{
		"user_id": schema.UUID().AllowLiterals("me"),
	}

	out, err := obj.Validate(map[string]any{"user_id": "me"})
	require.NoError(t, err)
	require.Equal(t, "me", out["user_id"])

	out, err = obj.Validate(map[string]any{"user_id": "5a4f2d1c-8a4e-4f6b-9a3d-2b1c0e9f8a7b"})
	require.NoError(t, err)
	require.Equal(t, "5a4f2d1c-8a4e-4f6b-9a3d-2b1c0e9f8a7b", out["user_id"])

	_, err = obj.Validate(map[string]any{"user_id": "you"})
	require.Error(t, err)
}

func TestValidateCoercion(t *testing.T) {
	obj := schema.Object{
		"limit":  schema.Number().Coerce(),
		"strict": schema.Bool().Coerce(),
	}

	out, err := obj.Validate(map[string]any{"limit": "25", "strict": "true"})
	require.NoError(t, err)
	require.Equal(t, float64(25), out["limit"])
	require.Equal(t, true, out["strict"])

	// Coercion is opt-in per field.
	noCoerce := schema.Object{"limit": schema.Number()}
	_, err = noCoerce.Validate(map[string]any{"limit": "25"})
	require.Error(t, err)
}

func TestValidateDropsUndeclaredFields(t *testing.T) {
	obj := schema.Object{"name": schema.String()}

	out, err := obj.Validate(map[string]any{"name": "a", "extra": "b"})
	require.NoError(t, err)
	require.NotContains(t, out, "extra")
}

func TestValidateNullable(t *testing.T) {
	obj := schema.Object{
		"expires_at": schema.Number().Nullable(),
		"name":       schema.String(),
	}

	out, err := obj.Validate(map[string]any{"expires_at": nil})
	require.NoError(t, err)
	require.Contains(t, out, "expires_at")
	require.Nil(t, out["expires_at"])

	_, err = obj.Validate(map[string]any{"name": nil})
	require.Error(t, err)
}
