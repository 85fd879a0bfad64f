// keys — utilitario de llaves RSA para firmar JWT.
//
// `keys generate` emite un par nuevo (PKCS8 / PKIX, PEM en base64) listo
// para pegar en el .env del servicio; `keys jwks` imprime el JWKS que va
// a publicar el servicio con las llaves del entorno actual.
package main

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/base64"
	"encoding/pem"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	jwtx "github.com/dropDatabas3/littlejohn/internal/jwt"
)

func main() {
	var envFile string

	root := &cobra.Command{
		Use:   "keys",
		Short: "Manejo de llaves de firma (RS256)",
	}
	root.PersistentFlags().StringVar(&envFile, "env-file", ".env", "ruta a .env")

	var bits int
	var kid string
	generateCmd := &cobra.Command{
		Use:   "generate",
		Short: "Genera un par RSA nuevo y lo imprime como env vars",
		RunE: func(cmd *cobra.Command, args []string) error {
			if kid == "" {
				kid = "auth-" + time.Now().UTC().Format("2006-01-02")
			}

			priv, err := rsa.GenerateKey(rand.Reader, bits)
			if err != nil {
				return err
			}

			privDER, err := x509.MarshalPKCS8PrivateKey(priv)
			if err != nil {
				return err
			}
			pubDER, err := x509.MarshalPKIXPublicKey(&priv.PublicKey)
			if err != nil {
				return err
			}

			privPEM := pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: privDER})
			pubPEM := pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: pubDER})

			fmt.Printf("JWT_KID=%s\n", kid)
			fmt.Printf("JWT_PRIVATE_KEY=%s\n", base64.StdEncoding.EncodeToString(privPEM))
			fmt.Printf("JWT_PUBLIC_KEY=%s\n", base64.StdEncoding.EncodeToString(pubPEM))
			fmt.Fprintln(os.Stderr, "la private key no se commitea; la public puede compartirse")
			return nil
		},
	}
	generateCmd.Flags().IntVar(&bits, "bits", 2048, "tamaño de la llave RSA")
	generateCmd.Flags().StringVar(&kid, "kid", "", "key id (default: auth-<fecha>)")

	jwksCmd := &cobra.Command{
		Use:   "jwks",
		Short: "Imprime el JWKS derivado de las llaves del entorno",
		RunE: func(cmd *cobra.Command, args []string) error {
			_ = godotenv.Load(envFile)

			ks := jwtx.NewKeystore(func() (*jwtx.KeySet, error) {
				return jwtx.ParseRSAKeyPair(
					os.Getenv("JWT_PRIVATE_KEY"),
					os.Getenv("JWT_PUBLIC_KEY"),
					os.Getenv("JWT_KID"),
					"RS256",
				)
			})
			body, err := ks.JWKSJSON()
			if err != nil {
				return err
			}
			fmt.Println(string(body))
			return nil
		},
	}

	root.AddCommand(generateCmd)
	root.AddCommand(jwksCmd)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(1)
	}
}
