package email

const (
    OrderConfirmationTemplate = `
<!DOCTYPE html>
<html lang="es">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>Pedido recibido</title>
</head>
<body style="margin:0;padding:0;background-color:#f4f4f4;font-family:Arial,Helvetica,sans-serif;">
    <table role="presentation" width="100%%" cellpadding="0" cellspacing="0">
        <tr>
            <td align="center" style="padding:24px;">
                <table role="presentation" width="600" cellpadding="0" cellspacing="0"
                       style="background-color:#ffffff;border-radius:8px;overflow:hidden;">
                    <tr>
                        <td style="background-color:#2b6cb0;padding:20px;text-align:center;">
                            <h1 style="color:#ffffff;margin:0;font-size:22px;">PeM - Juguetes para Mascotas</h1>
                        </td>
                    </tr>
                    <tr>
                        <td style="padding:32px;">
                            <h2 style="margin-top:0;">¡Gracias por tu compra, %s!</h2>
                            <p>Hemos recibido tu pedido <strong>%s</strong> y ya lo estamos preparando.</p>
                            <p style="font-size:18px;">Total: <strong>%s &euro;</strong></p>
                            <p>Puedes consultar el estado de tu pedido en cualquier momento con tu
                               email y el número de pedido <strong>%s</strong>.</p>
                            <p style="color:#718096;font-size:13px;margin-bottom:0;">
                                Si no realizaste esta compra, responde a este correo.
                            </p>
                        </td>
                    </tr>
                </table>
            </td>
        </tr>
    </table>
</body>
</html>`

    OrderStatusTemplate = `
<!DOCTYPE html>
<html lang="es">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>Actualización de pedido</title>
</head>
<body style="margin:0;padding:0;background-color:#f4f4f4;font-family:Arial,Helvetica,sans-serif;">
    <table role="presentation" width="100%%" cellpadding="0" cellspacing="0">
        <tr>
            <td align="center" style="padding:24px;">
                <table role="presentation" width="600" cellpadding="0" cellspacing="0"
                       style="background-color:#ffffff;border-radius:8px;overflow:hidden;">
                    <tr>
                        <td style="background-color:#2b6cb0;padding:20px;text-align:center;">
                            <h1 style="color:#ffffff;margin:0;font-size:22px;">PeM - Juguetes para Mascotas</h1>
                        </td>
                    </tr>
                    <tr>
                        <td style="padding:32px;">
                            <h2 style="margin-top:0;">Hola %s,</h2>
                            <p>Tu pedido <strong>%s</strong> ahora está <strong>%s</strong>.</p>
                            <p style="color:#718096;font-size:13px;margin-bottom:0;">
                                Gracias por confiar en nosotros.
                            </p>
                        </td>
                    </tr>
                </table>
            </td>
        </tr>
    </table>
</body>
</html>`
)
